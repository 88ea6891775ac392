package chat

import (
	"fmt"
	"sync"
)

// maxQueuedMessages caps one user's queue in one channel.
const maxQueuedMessages = 25

// queueKey identifies one user's queue in one channel.
type queueKey struct {
	userID    string
	channelID string
}

// Queues holds per-user, per-channel message queues. Users queue up message
// fragments and later send them as a single concatenated prompt, which keeps
// multi-part questions from being answered piecemeal.
//
// All methods are safe for concurrent use.
type Queues struct {
	mu     sync.Mutex
	queues map[queueKey][]string
}

// NewQueues creates an empty queue set.
func NewQueues() *Queues {
	return &Queues{queues: make(map[queueKey][]string)}
}

// Add appends a message to the user's queue for the channel.
func (q *Queues) Add(userID, channelID, text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := queueKey{userID: userID, channelID: channelID}
	if len(q.queues[key]) >= maxQueuedMessages {
		return fmt.Errorf("chat: queue full (%d messages), send or clear it first", maxQueuedMessages)
	}
	q.queues[key] = append(q.queues[key], text)
	return nil
}

// View returns a copy of the user's queued messages, oldest first.
func (q *Queues) View(userID, channelID string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	queued := q.queues[queueKey{userID: userID, channelID: channelID}]
	out := make([]string, len(queued))
	copy(out, queued)
	return out
}

// Clear discards the user's queue and reports how many messages it held.
func (q *Queues) Clear(userID, channelID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := queueKey{userID: userID, channelID: channelID}
	n := len(q.queues[key])
	delete(q.queues, key)
	return n
}

// Drain removes and returns the user's queued messages, oldest first.
// Returns nil when the queue is empty.
func (q *Queues) Drain(userID, channelID string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := queueKey{userID: userID, channelID: channelID}
	queued := q.queues[key]
	delete(q.queues, key)
	return queued
}

package chat

import (
	"sync"
	"time"
)

const (
	// DefaultHistorySize is the per-channel turn cap.
	DefaultHistorySize = 30

	// DefaultHistoryAge is how long a turn stays relevant.
	DefaultHistoryAge = 15 * time.Minute
)

// Turn is one message in a channel's conversation history.
type Turn struct {
	// Role is llm.RoleUser or llm.RoleAssistant.
	Role string

	// Author is the display name of the speaker. Empty for the bot's own turns.
	Author string

	// Content is the message text.
	Content string

	// At records when the turn happened.
	At time.Time
}

// History keeps a bounded conversation history per channel.
//
// Each channel's history enforces both a maximum turn count and a maximum
// age; turns exceeding either limit are evicted on every [History.Add].
// All methods are safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	channels map[string][]Turn
	maxSize  int
	maxAge   time.Duration
}

// NewHistory creates a history retaining at most maxSize turns per channel
// and evicting turns older than maxAge. Non-positive arguments select the
// defaults.
func NewHistory(maxSize int, maxAge time.Duration) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	if maxAge <= 0 {
		maxAge = DefaultHistoryAge
	}
	return &History{
		channels: make(map[string][]Turn),
		maxSize:  maxSize,
		maxAge:   maxAge,
	}
}

// Add appends a turn to the channel's history and evicts turns that exceed
// the configured size or age.
func (h *History) Add(channelID string, turn Turn) {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	turns := append(h.channels[channelID], turn)
	h.channels[channelID] = h.evict(turns)
}

// Recent returns the channel's turns within the age window, oldest first.
func (h *History) Recent(channelID string) []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cutoff := time.Now().Add(-h.maxAge)
	turns := h.channels[channelID]

	start := 0
	for start < len(turns) && turns[start].At.Before(cutoff) {
		start++
	}

	out := make([]Turn, len(turns)-start)
	copy(out, turns[start:])
	return out
}

// Clear drops the channel's history.
func (h *History) Clear(channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels, channelID)
}

// evict removes turns that are too old or exceed maxSize. Surviving turns
// are copied to a fresh backing array so evicted ones can be collected.
func (h *History) evict(turns []Turn) []Turn {
	cutoff := time.Now().Add(-h.maxAge)

	start := 0
	for start < len(turns) && turns[start].At.Before(cutoff) {
		start++
	}
	keep := turns[start:]
	if len(keep) > h.maxSize {
		keep = keep[len(keep)-h.maxSize:]
	}

	if len(keep) < len(turns) {
		fresh := make([]Turn, len(keep), h.maxSize)
		copy(fresh, keep)
		return fresh
	}
	return turns
}

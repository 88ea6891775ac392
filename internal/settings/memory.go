package settings

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps channel settings in memory. Used when no database is
// configured; everything resets on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	efforts map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{efforts: make(map[string]string)}
}

// ReasoningEffort returns the channel's stored effort, or "" when unset.
func (s *MemoryStore) ReasoningEffort(_ context.Context, channelID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.efforts[channelID], nil
}

// SetReasoningEffort stores the channel's effort.
func (s *MemoryStore) SetReasoningEffort(_ context.Context, channelID, effort string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.efforts[channelID] = effort
	return nil
}

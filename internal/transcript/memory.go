package transcript

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// defaultMemoryCap bounds the in-memory log per guild.
const defaultMemoryCap = 200

// MemoryStore is an in-memory [Store] for tests and deployments without a
// database. It keeps at most a fixed number of entries per guild, evicting
// the oldest. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[string][]Entry // keyed by guild ID, oldest first
	cap     int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]Entry),
		cap:     defaultMemoryCap,
	}
}

// Save persists one entry, evicting the guild's oldest entry when full.
func (s *MemoryStore) Save(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	e.ID = s.nextID

	list := append(s.entries[e.GuildID], e)
	if len(list) > s.cap {
		list = list[len(list)-s.cap:]
	}
	s.entries[e.GuildID] = list
	return nil
}

// Recent returns up to limit entries for the guild, newest first.
func (s *MemoryStore) Recent(_ context.Context, guildID string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.entries[guildID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	out := make([]Entry, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

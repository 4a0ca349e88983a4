package store

import (
	"context"
	"sync"
)

// MemoryStore is a concurrency-safe in-memory preference store. Values do not
// survive a restart; use SQLiteStore for durable preferences.
type MemoryStore struct {
	mu sync.RWMutex

	// key: preference key, value: stored value
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

// Get returns the stored value for key, or def when nothing is stored.
func (s *MemoryStore) Get(_ context.Context, key, def string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return def, nil
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

// Close is a no-op; it lets MemoryStore stand in wherever SQLiteStore is closed.
func (s *MemoryStore) Close() error {
	return nil
}

package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero when the entry never expires
}

type memoryStore struct {
	mutex   sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryStore returns an in-process Store with lazy expiry
func NewMemoryStore() Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, found := s.entries[key]

	if !found {
		return "", false, nil
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}

	return entry.value, true, nil
}

func (s *memoryStore) SetEx(_ context.Context, key string, ttl time.Duration, value string) error {
	entry := memoryEntry{value: value}

	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mutex.Lock()
	s.entries[key] = entry
	s.mutex.Unlock()

	return nil
}

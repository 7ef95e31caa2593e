package cache

import (
	"context"
	"sync"
	"time"

	"github.com/leadradar/leadradar-cli/internal/model"
)

// MemoryStore is an in-process Store. Used by tests and by runs that opt out
// of persistence (cache.driver=memory).
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]model.CacheEntry
	now     func() time.Time
}

// NewMemory creates an in-memory cache store.
func NewMemory(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]model.CacheEntry),
		now:     time.Now,
	}
}

// SetClock overrides the store's clock. Test hook for TTL expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Get(_ context.Context, category, location string) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(category, location)
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if s.now().Sub(entry.CachedAt) > s.ttl {
		delete(s.entries, key)
		return nil, nil
	}

	leads := make([]model.Lead, len(entry.Leads))
	copy(leads, entry.Leads)
	return leads, nil
}

func (s *MemoryStore) Put(_ context.Context, category, location string, leads []model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]model.Lead, len(leads))
	copy(stored, leads)
	s.entries[Key(category, location)] = model.CacheEntry{
		CachedAt: s.now(),
		Leads:    stored,
	}
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, entry := range s.entries {
		if s.now().Sub(entry.CachedAt) > s.ttl {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]model.CacheEntry)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

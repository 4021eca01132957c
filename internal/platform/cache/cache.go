package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Store is an in-process TTL cache. It backs the cache-aside read paths and
// takes key invalidations on every state-changing event; it is an optimization
// layer only, so callers treat misses and failures identically.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]entry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// NewStoreWithClock exists for deterministic expiry in tests.
func NewStoreWithClock(now func() time.Time) *Store {
	store := NewStore()
	if now != nil {
		store.now = now
	}
	return store
}

func (s *Store) Get(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return "", false
	}
	return item.value, true
}

func (s *Store) Set(_ context.Context, key string, value string, ttl time.Duration) {
	item := entry{value: value}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

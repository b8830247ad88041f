// Package cache provides expiring key-value stores for search results and
// place resolutions. The fast tier is an in-process map; an optional redis
// tier persists entries across restarts under its own TTL.
package cache

import (
	"sync"
	"time"
)

// Store is an in-memory TTL cache. Eviction is lazy: an entry read past its
// expiry is removed on access. There is no background sweep and no size bound.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	name    string
	clock   func() time.Time
}

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// New creates a named Store. The name appears in cache log events only.
func New[T any](name string) *Store[T] {
	return &Store[T]{
		entries: make(map[string]entry[T]),
		name:    name,
		clock:   time.Now,
	}
}

// Name returns the store's identifier.
func (s *Store[T]) Name() string {
	return s.name
}

// Get returns the cached value for key. A read at or past the entry's expiry
// removes it and reports absent.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if !s.clock().Before(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if current, still := s.entries[key]; still && !s.clock().Before(current.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}

	return e.data, true
}

// Set stores data under key for ttl, overwriting any previous entry.
func (s *Store[T]) Set(key string, data T, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = entry[T]{
		data:      data,
		expiresAt: s.clock().Add(ttl),
	}
	s.mu.Unlock()
}

// Delete removes key from the store.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetClock replaces the time source. Test hook.
func (s *Store[T]) SetClock(clock func() time.Time) {
	s.mu.Lock()
	s.clock = clock
	s.mu.Unlock()
}

// Package cache provides implementations of the key-value cache store the
// access engine treats as an external collaborator.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process LRU cache store. A zero TTL disables expiry; the
// engine relies on explicit invalidation either way.
type Memory struct {
	cache *lru.LRU[string, []byte]
}

// NewMemory creates a memory cache store holding at most maxEntries values.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries < 16 {
		maxEntries = 16
	}
	return &Memory{
		cache: lru.NewLRU[string, []byte](maxEntries, nil, ttl),
	}
}

// Get returns the cached value for key, or found=false on a miss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Add stores value under key, replacing any existing entry.
func (m *Memory) Add(_ context.Context, key string, value []byte) error {
	m.cache.Add(key, value)
	return nil
}

// Invalidate removes key from the cache. Removing an absent key is a no-op.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is an in-process LRU cache. Each entry carries its own ttl,
// checked on Get; once maxEntries is reached the least recently used entry
// is evicted.
type MemoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache holding at most maxEntries
// entries. maxEntries <= 0 means unbounded.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &MemoryCache{
		// A zero lru ttl disables the cache-wide expiry; entries expire
		// individually.
		lru: expirable.NewLRU[string, memoryEntry](maxEntries, nil, 0),
		now: time.Now,
	}
}

// Get returns a copy of the stored value.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

// Set stores a copy of data. A ttl <= 0 never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

// Delete removes key if present.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// collected.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}

var _ Cache = (*MemoryCache)(nil)

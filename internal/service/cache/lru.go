package cache

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache is a size-bounded in-process BytesCache. Every entry carries its
// own expiry, so callers can mix result and job TTLs in one cache.
type LRUCache struct {
	cache  *lru.Cache[string, lruEntry]
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
}

type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewLRUCache creates a cache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: c, now: time.Now}, nil
}

func (c *LRUCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := c.cache.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.cache.Remove(key)
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return e.value, true, nil
}

// SetBytes stores value; ttl <= 0 never expires.
func (c *LRUCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.cache.Add(key, lruEntry{value: value, expiresAt: exp})
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// Stats returns hit and miss counts.
func (c *LRUCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

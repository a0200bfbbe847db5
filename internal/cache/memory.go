package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds serialized search responses in memory with TTL
// eviction. It is the fast layer; DiskCache persists across runs.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache. Entries set without an explicit
// TTL expire after defaultTTL; expired entries are swept every
// cleanupInterval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a cached response
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a response. A zero ttl uses the cache default; a negative
// ttl pins the entry until Clear.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	switch {
	case ttl == 0:
		c.cache.Set(key, value, gocache.DefaultExpiration)
	case ttl < 0:
		c.cache.Set(key, value, gocache.NoExpiration)
	default:
		c.cache.Set(key, value, ttl)
	}
	return nil
}

// Delete removes a single entry
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all entries
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

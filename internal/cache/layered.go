package cache

import "time"

// LayeredCache combines an in-memory cache with a disk cache. Reads check
// memory first and promote disk hits back into memory.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a two-tier cache
func NewLayeredCache(memory *MemoryCache, disk *DiskCache) *LayeredCache {
	return &LayeredCache{memory: memory, disk: disk}
}

// Get checks the memory tier first, then disk
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if data, ok := c.memory.Get(key); ok {
		return data, true
	}
	if data, ok := c.disk.Get(key); ok {
		_ = c.memory.Set(key, data, 0)
		return data, true
	}
	return nil, false
}

// Set writes through to both tiers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes a value from both tiers
func (c *LayeredCache) Delete(key string) error {
	if err := c.memory.Delete(key); err != nil {
		return err
	}
	return c.disk.Delete(key)
}

// Clear removes all values from both tiers
func (c *LayeredCache) Clear() error {
	if err := c.memory.Clear(); err != nil {
		return err
	}
	return c.disk.Clear()
}

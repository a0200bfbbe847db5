package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// QueryKey generates a cache key for a search query. The kind distinguishes
// general search from news search so their results never collide.
func QueryKey(kind, query string) string {
	hash := sha256.Sum256([]byte(kind + "\x00" + query))
	return "deckcheck:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}

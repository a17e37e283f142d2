package playercache

import (
	"sync"
	"time"
)

// MemoryCache is a simple in-memory cache for player JS bodies.
// Expired entries are treated as missing.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]Entry)}
}

// Get retrieves a cached entry by key
func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	v, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if !v.ExpiresAt.IsZero() && time.Until(v.ExpiresAt) <= 0 {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return Entry{}, false
	}
	return v, true
}

// Set stores a value in the cache
func (c *MemoryCache) Set(key string, value Entry) {
	c.mu.Lock()
	c.data[key] = value
	c.mu.Unlock()
}

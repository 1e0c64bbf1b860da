package service

import (
	"sync"
	"time"
)

// DefaultTTL bounds how stale a cached system default may be.
const DefaultTTL = 60 * time.Second

// Cache holds the system commission default in process memory. It is shared
// by all concurrent coordinator flows: reads take the read lock, writes swap
// the value under the write lock so a reader can never observe a torn value.
// A read racing a write may still return the previous value until the writer
// commits, which is acceptable TTL-bounded staleness.
type Cache struct {
	mu        sync.RWMutex
	value     Resolved
	populated bool
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewCache creates a cache with the given TTL and the real clock.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// NewCacheWithClock creates a cache with an injected clock for tests.
func NewCacheWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{ttl: ttl, now: now}
}

// Get returns the cached value if present and within TTL.
func (c *Cache) Get() (Resolved, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.populated || c.now().After(c.expiresAt) {
		return Resolved{}, false
	}
	return c.value, true
}

// Set stores a value and resets the TTL clock.
func (c *Cache) Set(value Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.populated = true
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate clears the cache, forcing the next Get to miss.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.populated = false
	c.value = Resolved{}
}

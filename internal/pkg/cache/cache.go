// Package cache provides a bounded in-memory TTL cache with explicit
// invalidation. Writers that change the underlying data are expected to call
// Delete or Clear; there is no ambient singleton.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a size-bounded map cache with per-cache TTL.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
}

// New creates a Cache holding at most maxEntries values for at most ttl each.
// A maxEntries of 0 or less disables the size bound.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns the cached value for key, or false when absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key. When the cache is full, expired entries are
// dropped first; if still full, one arbitrary entry is evicted to keep the
// bound hard.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLocked()
		}
	}

	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// Delete removes one key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry. Admission writes call this on the report cache
// so reads never serve stale totals.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the current number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked drops expired entries, then an arbitrary one if none expired.
// Caller holds the write lock.
func (c *Cache) evictLocked() {
	now := time.Now()
	dropped := false
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			dropped = true
		}
	}
	if dropped {
		return
	}
	for k := range c.entries {
		delete(c.entries, k)
		return
	}
}

// StartSweeper runs a background loop that drops expired entries every
// interval until stop is closed.
func (c *Cache) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				now := time.Now()
				for k, e := range c.entries {
					if now.After(e.expiresAt) {
						delete(c.entries, k)
					}
				}
				c.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

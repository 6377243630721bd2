// Package cache wraps hashicorp/golang-lru into a TTL-aware cache of
// arbitrary values, generalized from the teacher's pkgs/cache (which
// wrapped the same LRU for a narrower purpose) to back the Cache
// Controller's Post LRU.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultRemovalInterval is an interval for periodic RemoveExpired
// calls. The Cache starts no sweeper of its own: an expired entry stays
// readable until RemoveExpired is called.
var DefaultRemovalInterval = 5 * time.Second

type cacheValue struct {
	value interface{}
	expAt time.Time
}

// Cache is an LRU cache with optional per-entry expiry.
type Cache struct {
	container *lru.Cache
	capacity  int
}

// New creates a Cache bounded to capacity entries.
func New(capacity int) *Cache {
	c := &Cache{capacity: capacity}
	c.container, _ = lru.New(capacity)
	return c
}

// Add inserts or replaces an entry, evicting the oldest entry if the
// cache is at capacity. expireAt, if given, marks the entry for
// removal by RemoveExpired once past.
func (c *Cache) Add(key, val interface{}, expireAt ...time.Time) {
	var expAt time.Time
	if len(expireAt) > 0 {
		expAt = expireAt[0]
	}
	c.container.Add(key, &cacheValue{value: val, expAt: expAt})
}

// Peek returns an item without updating its recency.
func (c *Cache) Peek(key interface{}) (interface{}, bool) {
	v, ok := c.container.Peek(key)
	if !ok {
		return nil, false
	}
	return v.(*cacheValue).value, true
}

// Get returns an item and marks it most-recently-used.
func (c *Cache) Get(key interface{}) (interface{}, bool) {
	v, ok := c.container.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*cacheValue).value, true
}

// RemoveExpired evicts every entry whose expiry has passed.
func (c *Cache) RemoveExpired() {
	for _, k := range c.container.Keys() {
		v, ok := c.container.Peek(k)
		if !ok {
			continue
		}
		cv := v.(*cacheValue)
		if cv.expAt.IsZero() {
			continue
		}
		if time.Now().After(cv.expAt) {
			c.container.Remove(k)
		}
	}
}

// Keys returns all keys currently in the cache.
func (c *Cache) Keys() []interface{} {
	return c.container.Keys()
}

// Remove deletes a key.
func (c *Cache) Remove(key interface{}) {
	c.container.Remove(key)
}

// Has reports membership without updating recency.
func (c *Cache) Has(key interface{}) bool {
	return c.container.Contains(key)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	return c.container.Len()
}

// Cap returns the configured maximum capacity.
func (c *Cache) Cap() int {
	return c.capacity
}

// Purge clears every entry.
func (c *Cache) Purge() {
	c.container.Purge()
}

// Resize replaces the container with one of the given capacity,
// copying over as many entries as fit (oldest evicted first, per LRU
// semantics of the copy order from Keys()).
func (c *Cache) Resize(capacity int) {
	newContainer, _ := lru.New(capacity)
	for _, k := range c.container.Keys() {
		if v, ok := c.container.Peek(k); ok {
			newContainer.Add(k, v)
		}
	}
	c.container = newContainer
	c.capacity = capacity
}

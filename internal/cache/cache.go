package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Key is a value object identifying one cached query. Implementations
// must compose every field that affects the result into the returned
// string deterministically.
type Key interface {
	CacheKey() string
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a read-mostly TTL cache. Entries are never invalidated on
// writes; readers tolerate up to one TTL window of staleness.
type Cache[V any] struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]entry[V]
}

func New[V any](clock clockwork.Clock, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]entry[V]),
	}
}

func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key.CacheKey()]
	c.mu.RUnlock()

	if !ok || c.clock.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key Key, value V) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop whatever already expired so the map does not grow
	// unbounded across distinct filter combinations.
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key.CacheKey()] = entry[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

package cache

import (
	"context"
	"sync"
	"time"
)

// TTLCache is a thread-safe keyed cache with sliding expiration: every
// successful Get pushes the entry's expiry forward by the TTL.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	ttl     time.Duration
	now     func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLCache creates a cache whose entries live ttl after their last use.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		entries: make(map[string]*entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value when present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	e.expiresAt = c.now().Add(c.ttl)
	return e.value, true
}

// Set stores value under key with a fresh TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Delete removes key and returns the value it held.
func (c *TTLCache[V]) Delete(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.entries, key)
	return e.value, true
}

// Len counts stored entries, expired ones included until the next Sweep.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns their values.
func (c *TTLCache[V]) Sweep() []V {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var evicted []V
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			evicted = append(evicted, e.value)
			delete(c.entries, k)
		}
	}
	return evicted
}

// StartJanitor sweeps every interval until ctx is done. onEvict runs outside
// the lock for each removed value.
func (c *TTLCache[V]) StartJanitor(ctx context.Context, interval time.Duration, onEvict func(V)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, v := range c.Sweep() {
					if onEvict != nil {
						onEvict(v)
					}
				}
			}
		}
	}()
}

// # internal/core/cache/cache.go
package cache

import "sync"

// Cache is a capacity-bounded map with insertion-order eviction. Eviction
// is deliberately FIFO rather than LRU: lookups are bursty and entries are
// re-resolved on source change anyway, so recency tracking buys nothing.
// Safe for concurrent use; the design otherwise assumes at most one
// in-flight mutation per instance.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]V
	order    []K
}

func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		entries:  make(map[K]V, capacity),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value, evicting the oldest entry once the capacity is
// reached. Overwriting an existing key keeps its original insertion slot.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}

	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = value
	c.order = append(c.order, key)
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// DeleteFunc removes every entry matching the predicate and returns how
// many were dropped. Used by watcher-driven invalidation.
func (c *Cache[K, V]) DeleteFunc(match func(K, V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	dropped := 0
	for _, k := range c.order {
		if match(k, c.entries[k]) {
			delete(c.entries, k)
			dropped++
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
	return dropped
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V, c.capacity)
	c.order = c.order[:0]
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

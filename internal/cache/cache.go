package cache

import "sync"

// LRU maps keys to values, evicting the least recently used entry once
// more than capacity entries are held.
//
// LRU is safe for concurrent use. It must not be copied after creation.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]*entry[K, V]
	order    recency[K, V]

	hits, misses, evictions uint64
}

// NewLRU returns an empty cache holding at most capacity entries.
// capacity < 1 is treated as 1.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{capacity: capacity, entries: make(map[K]*entry[K, V])}
}

// Get returns the value for key and marks it used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.touch(e)
	return e.value, true
}

// GetOrCreate returns the value for key, calling create on a miss. create
// runs under the cache lock, so it is called at most once per key.
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.order.touch(e)
		return e.value
	}
	c.misses++
	v := create()
	c.insert(key, v)
	return v
}

// Set stores value under key, replacing any previous value.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.order.touch(e)
		return
	}
	c.insert(key, value)
}

// Caller must hold c.mu.
func (c *LRU[K, V]) insert(key K, value V) {
	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.order.pushFront(e)
	for c.order.n > c.capacity {
		old := c.order.popBack()
		delete(c.entries, old.key)
		c.evictions++
	}
}

// Delete removes key. It reports whether the key was present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.unlink(e)
	delete(c.entries, key)
	return true
}

// Purge drops every entry. Counters are kept.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[K, V])
	c.order = recency[K, V]{}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the entry count and the lookup counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Stats is a snapshot of an LRU.
type Stats struct {
	Len, Capacity           int
	Hits, Misses, Evictions uint64
}

// HitRate returns hits over lookups, 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

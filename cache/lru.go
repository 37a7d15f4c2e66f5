package cache

import (
	"container/list"
	"sync"
)

// LRU is a bounded, thread-safe cache of embedding vectors keyed by
// (text, model). It evicts the least recently used entry once capacity is
// exceeded.
type LRU struct {
	mu sync.Mutex

	capacity int
	ll       *list.List
	items    map[Key]*list.Element

	hits   uint64
	misses uint64
}

// NewLRU creates a cache that holds at most capacity entries. A
// non-positive capacity disables eviction entirely (unbounded growth).
func NewLRU(capacity int) *LRU {
	return &LRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get looks up the embedding for (text, model), promoting it to most
// recently used on a hit.
func (c *LRU) Get(text, model string) ([]float32, bool) {
	key := NewKey(text, model)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	c.ll.MoveToFront(el)
	c.hits++

	e := el.Value.(*entry)

	return append([]float32(nil), e.vector...), true
}

// Has reports whether (text, model) is currently cached, without
// promoting it or affecting the hit/miss counters.
func (c *LRU) Has(text, model string) bool {
	key := NewKey(text, model)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]

	return ok
}

// Put stores the embedding for (text, model), evicting the least recently
// used entry if the cache is over capacity.
func (c *LRU) Put(text, model string, vector []float32) {
	key := NewKey(text, model)
	vec := append([]float32(nil), vector...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*entry).vector = vec

		return
	}

	el := c.ll.PushFront(&entry{key: key, vector: vec})
	c.items[key] = el

	if c.capacity > 0 && c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *LRU) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}

	c.ll.Remove(oldest)
	delete(c.items, oldest.Value.(*entry).key)
}

// Remove evicts the entry for (text, model), if present.
func (c *LRU) Remove(text, model string) bool {
	key := NewKey(text, model)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}

	c.ll.Remove(el)
	delete(c.items, key)

	return true
}

// Clear empties the cache and resets its hit/miss counters.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll = list.New()
	c.items = make(map[Key]*list.Element)
	c.hits = 0
	c.misses = 0
}

// Len returns the number of entries currently cached.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ll.Len()
}

// HitRate returns hits / (hits + misses), or 0 if nothing has been looked up yet.
func (c *LRU) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0
	}

	return float64(c.hits) / float64(total)
}

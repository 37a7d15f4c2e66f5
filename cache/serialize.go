package cache

import (
	"container/list"
	"encoding/base64"

	"github.com/arrowhead-dev/hybridsearch/quantization"
)

// Entry is a single cache record as exposed by Entries: the composite key
// plus its embedding, base64-encoded as little-endian float32s.
type Entry struct {
	Key    Key
	Vector string
}

// Entries returns every cached entry, ordered most-recently-used first.
// Combined with Restore, this is the cache's serializable form.
func (c *LRU) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		out = append(out, Entry{
			Key:    e.key,
			Vector: base64.StdEncoding.EncodeToString(quantization.EncodeFloat32(e.vector)),
		})
	}

	return out
}

// Restore replaces the cache's contents with entries, treating the slice
// order as recency: entries[0] becomes the most recently used. Entries
// past capacity are evicted from the tail, same as Put's normal eviction.
func (c *LRU) Restore(entries []Entry) error {
	ll := list.New()
	items := make(map[Key]*list.Element, len(entries))

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]

		raw, err := base64.StdEncoding.DecodeString(e.Vector)
		if err != nil {
			return err
		}

		items[e.Key] = ll.PushFront(&entry{key: e.Key, vector: quantization.DecodeFloat32(raw)})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll = ll
	c.items = items

	for c.capacity > 0 && c.ll.Len() > c.capacity {
		c.evictOldest()
	}

	return nil
}

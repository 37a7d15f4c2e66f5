package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntriesOrderedMostRecentFirst(t *testing.T) {
	c := NewLRU(4)
	c.Put("a", "m", []float32{1})
	c.Put("b", "m", []float32{2})
	c.Get("a", "m") // promote a to most recently used

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, NewKey("a", "m"), entries[0].Key)
	assert.Equal(t, NewKey("b", "m"), entries[1].Key)
}

func TestRestoreRoundTripsVectorsAndRecency(t *testing.T) {
	src := NewLRU(4)
	src.Put("a", "m", []float32{1, 2, 3})
	src.Put("b", "m", []float32{4, 5, 6})
	src.Get("a", "m")

	entries := src.Entries()

	dst := NewLRU(4)
	require.NoError(t, dst.Restore(entries))

	v, ok := dst.Get("a", "m")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v)

	v, ok = dst.Get("b", "m")
	require.True(t, ok)
	assert.Equal(t, []float32{4, 5, 6}, v)

	// recency from entries must carry over: restoring then evicting should
	// drop b (the least recently used at serialization time) first. With
	// capacity 3, the second Put is the first to overflow.
	dst2 := NewLRU(3)
	require.NoError(t, dst2.Restore(entries))
	dst2.Put("c", "m", []float32{7})
	dst2.Put("d", "m", []float32{8})

	_, ok = dst2.Get("b", "m")
	assert.False(t, ok, "b should have been evicted first since it was least recently used")

	_, ok = dst2.Get("a", "m")
	assert.True(t, ok)
}

func TestRestoreEvictsPastCapacity(t *testing.T) {
	src := NewLRU(0)
	src.Put("a", "m", []float32{1})
	src.Put("b", "m", []float32{2})
	src.Put("c", "m", []float32{3})
	entries := src.Entries()
	require.Len(t, entries, 3)

	dst := NewLRU(2)
	require.NoError(t, dst.Restore(entries))
	assert.Equal(t, 2, dst.Len())
}

func TestRestoreRejectsMalformedVector(t *testing.T) {
	c := NewLRU(4)
	err := c.Restore([]Entry{{Key: NewKey("a", "m"), Vector: "not-base64!!"}})
	assert.Error(t, err)
}

package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndSearch(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	vectors := map[uint32][]float32{
		0: {1, 0},
		1: {0.99, 0.14},
		2: {0, 1},
		3: {-1, 0},
	}

	for id := uint32(0); id < 4; id++ {
		require.NoError(t, g.Insert(id, vectors[id]))
	}

	results, err := g.Search([]float32{1, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint32(0), results[0].ID)
	assert.Equal(t, uint32(1), results[1].ID)
}

func TestInsertDimensionMismatch(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	err = g.Insert(0, []float32{1, 2})
	require.Error(t, err)

	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
}

func TestInsertDuplicateID(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	require.NoError(t, g.Insert(0, []float32{1, 0}))
	err = g.Insert(0, []float32{0, 1})
	require.ErrorIs(t, err, ErrIDExists)
}

func TestSearchEmptyGraph(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	results, err := g.Search([]float32{1, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRemoveUnlinksReciprocalEdges(t *testing.T) {
	g, err := New(2, WithM(4))
	require.NoError(t, err)

	for id, v := range [][]float32{{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0, 1}} {
		require.NoError(t, g.Insert(uint32(id), v))
	}

	removed := g.Remove(1)
	assert.True(t, removed)
	assert.Equal(t, 3, g.Len())

	for _, n := range g.nodes {
		for level, conns := range n.Connections {
			for _, nb := range conns {
				assert.NotEqual(t, uint32(1), nb, "level %d still references removed node", level)
			}
		}
	}

	assertReciprocalEdges(t, g)
}

func TestRemoveNonexistentIsNoop(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)
	require.NoError(t, g.Insert(0, []float32{1, 0}))

	assert.False(t, g.Remove(99))
	assert.Equal(t, 1, g.Len())
}

func TestRemoveEntryPointReelects(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	for id, v := range [][]float32{{1, 0}, {0, 1}, {-1, 0}} {
		require.NoError(t, g.Insert(uint32(id), v))
	}

	entry, ok := g.EntryPoint()
	require.True(t, ok)

	g.Remove(entry)

	newEntry, ok := g.EntryPoint()
	require.True(t, ok)
	assert.NotEqual(t, entry, newEntry)
}

func TestRemoveAllClearsEntryPoint(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)
	require.NoError(t, g.Insert(0, []float32{1, 0}))

	g.Remove(0)

	_, ok := g.EntryPoint()
	assert.False(t, ok)
	assert.Equal(t, 0, g.Len())
}

func TestNeighborBudgetRespected(t *testing.T) {
	g, err := New(4, WithM(4))
	require.NoError(t, err)

	vecs := GenerateRandomUnitVectors(200, 4, 42)
	for id, v := range vecs {
		require.NoError(t, g.Insert(uint32(id), v))
	}

	for _, n := range g.nodes {
		for level, conns := range n.Connections {
			limit := g.maxConnections(level)
			assert.LessOrEqual(t, len(conns), limit)
		}
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	g, err := New(3, WithM(8), WithDistanceKind(Euclidean))
	require.NoError(t, err)

	vecs := GenerateRandomUnitVectors(20, 3, 7)
	for id, v := range vecs {
		require.NoError(t, g.Insert(uint32(id), v))
	}

	data, err := g.MarshalJSON()
	require.NoError(t, err)

	loaded, err := New(3)
	require.NoError(t, err)
	require.NoError(t, loaded.UnmarshalJSON(data))

	assert.Equal(t, g.Len(), loaded.Len())
	assert.Equal(t, g.MaxLevel(), loaded.MaxLevel())

	query := vecs[0]
	want, err := g.Search(query, 5, 0)
	require.NoError(t, err)
	got, err := loaded.Search(query, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApproximateRecall(t *testing.T) {
	const (
		n   = 10000
		dim = 16
		k   = 10
	)

	g, err := New(dim, WithM(16), WithEfConstruction(200), WithEfSearch(50))
	require.NoError(t, err)

	vectors := GenerateRandomUnitVectors(n, dim, 99)
	for id, v := range vectors {
		require.NoError(t, g.Insert(uint32(id), v))
	}

	queries := GenerateRandomUnitVectors(100, dim, 1234)

	var hits, total int
	for _, q := range queries {
		approx, err := g.Search(q, k, 0)
		require.NoError(t, err)

		exact, err := g.BruteSearch(q, k)
		require.NoError(t, err)

		exactSet := make(map[uint32]bool, len(exact))
		for _, r := range exact {
			exactSet[r.ID] = true
		}

		for _, r := range approx {
			if exactSet[r.ID] {
				hits++
			}
		}
		total += len(exact)
	}

	recall := float64(hits) / float64(total)
	assert.GreaterOrEqual(t, recall, 0.9, "recall@%d was %.3f", k, recall)
}

func assertReciprocalEdges(t *testing.T, g *HNSW) {
	t.Helper()

	for id, n := range g.nodes {
		for level, conns := range n.Connections {
			for _, nbID := range conns {
				nb, ok := g.nodes[nbID]
				require.True(t, ok)
				require.Less(t, level, len(nb.Connections))

				found := false
				for _, back := range nb.Connections[level] {
					if back == id {
						found = true
						break
					}
				}
				assert.True(t, found, "edge %d->%d at level %d is not reciprocal", id, nbID, level)
			}
		}
	}
}

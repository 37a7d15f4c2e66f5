package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	assert.Equal(t, float32(32), Dot(a, b))
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0, sim, 1e-6)

	sim, err = CosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1, sim, 1e-6)
}

func TestCosineSimilarity_ZeroMagnitude(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{1, 1}

	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(0), sim)
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSquaredL2(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}

	d, err := SquaredL2(a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(25), d)
}

func TestCosineDistance_UnitNorm(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0}

	d, err := CosineDistance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-6)
}

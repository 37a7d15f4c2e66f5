package hnsw

import (
	"math/rand"

	"github.com/arrowhead-dev/hybridsearch/metric"
)

// GenerateRandomUnitVectors returns num random unit-norm vectors of the
// given dimensionality, seeded deterministically for reproducible tests.
func GenerateRandomUnitVectors(num, dimensions int, seed int64) [][]float32 {
	rng := rand.New(rand.NewSource(seed))

	vectors := make([][]float32, num)
	for i := range vectors {
		v := make([]float32, dimensions)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}

		mag := metric.Magnitude(v)
		if mag > 0 {
			for j := range v {
				v[j] /= mag
			}
		}

		vectors[i] = v
	}

	return vectors
}

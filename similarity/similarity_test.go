package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemantic(t *testing.T) {
	sim, err := Semantic([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1, sim, 1e-6)

	sim, err = Semantic([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, sim, 1e-6)
}

func TestFuzzyIdentical(t *testing.T) {
	assert.Equal(t, float32(1), Fuzzy("bathroom", "bathroom"))
}

func TestFuzzyCloseMatch(t *testing.T) {
	sim := Fuzzy("bathroom cleaner", "bathroom cleanr")
	assert.Greater(t, sim, float32(0.8))
	assert.Less(t, sim, float32(1))
}

func TestFuzzyCompletelyDifferent(t *testing.T) {
	sim := Fuzzy("abc", "xyz")
	assert.Equal(t, float32(0), sim)
}

func TestFuzzyIgnoresCase(t *testing.T) {
	mixedCase := Fuzzy("phone charger", "iPhone Charger")
	sameCase := Fuzzy("phone charger", "iphone charger")
	assert.Equal(t, sameCase, mixedCase)
}

func TestKeywordAllTermsPresent(t *testing.T) {
	score := Keyword("bathroom cleaner", "Best Bathroom Cleaner on the market")
	assert.Equal(t, float32(1), score)
}

func TestKeywordPartialMatch(t *testing.T) {
	score := Keyword("bathroom cleaner spray", "Best Bathroom Cleaner")
	assert.InDelta(t, float32(2.0/3.0), score, 1e-6)
}

func TestKeywordEmptyQuery(t *testing.T) {
	assert.Equal(t, float32(0), Keyword("", "anything"))
}

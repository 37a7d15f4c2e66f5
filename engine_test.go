package hybridsearch

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowhead-dev/hybridsearch/ranker"
)

// bagOfWordsEmbedder is a deterministic, dependency-free stand-in for a
// real embedding model: each token hashes into one of dim buckets, giving
// cosine similarity that tracks shared vocabulary. It is only ever used
// in tests.
type bagOfWordsEmbedder struct {
	dim int
}

func (b bagOfWordsEmbedder) Model() string { return "test-bow" }

func (b bagOfWordsEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, b.dim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		idx := int(h.Sum32() % uint32(b.dim))
		v[idx]++
	}

	return v, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func catalogItems() []Item {
	return []Item{
		{ID: "1", Text: "Bathroom floor cleaner"},
		{ID: "2", Text: "Dishwashing liquid"},
		{ID: "3", Text: "iPhone Charger"},
		{ID: "4", Text: "USB-C phone charger cable"},
	}
}

func newCatalogEngine(t *testing.T, optFns ...Option) *Engine {
	t.Helper()

	fixed := append([]Option{WithEmbedder(bagOfWordsEmbedder{dim: 32})}, optFns...)
	eng, err := New(32, fixed...)
	require.NoError(t, err)

	require.NoError(t, eng.Build(context.Background(), catalogItems()))

	return eng
}

func TestSearchFindsSynonymsBySemanticScore(t *testing.T) {
	eng := newCatalogEngine(t)

	results, err := eng.Search(context.Background(), "phone charger", WithTopK(2))
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := map[string]float32{}
	for _, r := range results {
		ids[r.ID] = r.Score
	}

	assert.Contains(t, ids, "3")
	assert.Contains(t, ids, "4")
	for id, score := range ids {
		assert.GreaterOrEqualf(t, score, float32(0.5), "id %s scored %f", id, score)
	}
}

func TestSearchKeywordWeightSurfacesExactMatch(t *testing.T) {
	eng := newCatalogEngine(t)
	require.NoError(t, eng.SetWeights(ranker.Weights{Semantic: 0.1, Fuzzy: 0.1, Keyword: 0.8}))

	results, err := eng.Search(context.Background(), "floor", WithTopK(4))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "1", results[0].ID)
}

func TestSearchThresholdFiltersLowScores(t *testing.T) {
	eng := newCatalogEngine(t)

	results, err := eng.Search(context.Background(), "cleaner", WithTopK(4), WithThreshold(0.5))
	require.NoError(t, err)

	assert.LessOrEqual(t, len(results), 4)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, float32(0.5))
	}
}

func TestSearchMinLengthRejectsShortQueries(t *testing.T) {
	eng := newCatalogEngine(t)

	results, err := eng.Search(context.Background(), "cl", WithMinLength(3))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddReplacesExistingItemByID(t *testing.T) {
	eng := newCatalogEngine(t)

	sizeBefore := eng.Size()

	err := eng.Add(context.Background(), Item{ID: "1", Text: "Wireless headphones"})
	require.NoError(t, err)

	assert.Equal(t, sizeBefore, eng.Size())

	got, ok := eng.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Wireless headphones", got.Text)

	results, err := eng.Search(context.Background(), "cleaner", WithTopK(1))
	require.NoError(t, err)
	if len(results) > 0 {
		assert.NotEqual(t, "1", results[0].ID)
	}
}

func TestQueueAddAppliesAsynchronously(t *testing.T) {
	eng := newCatalogEngine(t)
	defer eng.Close()

	eng.QueueAdd(Item{ID: "5", Text: "Laundry detergent"})
	eng.Flush()
	eng.WaitForCompletion()

	_, ok := eng.Get("5")
	assert.True(t, ok)
}

func TestQueueRemoveAppliesAsynchronously(t *testing.T) {
	eng := newCatalogEngine(t)
	defer eng.Close()

	eng.QueueRemove("2")
	eng.Flush()
	eng.WaitForCompletion()

	_, ok := eng.Get("2")
	assert.False(t, ok)
	assert.Equal(t, 3, eng.Size())
}

func TestGetIndexInfoReflectsANNThreshold(t *testing.T) {
	eng := newCatalogEngine(t, WithANNThreshold(1000))
	info := eng.GetIndexInfo()
	assert.Equal(t, "flat", info.Kind)
	assert.Equal(t, 4, info.ItemCount)

	dense := newCatalogEngine(t, WithANNThreshold(1))
	info = dense.GetIndexInfo()
	assert.Equal(t, "hnsw", info.Kind)
}

func TestSaveLoadRoundTripsItemsAndVectors(t *testing.T) {
	eng := newCatalogEngine(t)

	data, err := eng.Save()
	require.NoError(t, err)

	restored, err := New(32)
	require.NoError(t, err)

	require.NoError(t, restored.Load(data))
	assert.Equal(t, eng.Size(), restored.Size())

	for _, item := range catalogItems() {
		got, ok := restored.Get(item.ID)
		require.True(t, ok)
		assert.Equal(t, item.Text, got.Text)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	eng, err := New(32)
	require.NoError(t, err)

	err = eng.Load([]byte(`{"version":"99","items":[],"vectors":[]}`))
	assert.ErrorIs(t, err, ErrSnapshotVersion)
}

func TestLoadRejectsVectorCountMismatch(t *testing.T) {
	eng, err := New(32)
	require.NoError(t, err)

	err = eng.Load([]byte(`{"version":"1","items":[{"id":"1","text":"a"}],"vectors":[]}`))
	assert.ErrorIs(t, err, ErrVectorCountMismatch)
}

func TestSearchExplainAttachesScoreBreakdown(t *testing.T) {
	eng := newCatalogEngine(t)

	results, err := eng.Search(context.Background(), "phone charger", WithTopK(1), WithExplain(true))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Explain)
	assert.NotZero(t, results[0].Explain.Weights.Semantic)
}

func TestSearchFilterExcludesNonMatchingMetadata(t *testing.T) {
	eng, err := New(32, WithEmbedder(bagOfWordsEmbedder{dim: 32}))
	require.NoError(t, err)

	items := []Item{
		{ID: "1", Text: "iPhone Charger", Metadata: map[string]any{"category": "electronics"}},
		{ID: "2", Text: "USB-C phone charger cable", Metadata: map[string]any{"category": "accessories"}},
	}
	require.NoError(t, eng.Build(context.Background(), items))

	onlyElectronics := MetadataEquals("category", "electronics")
	results, err := eng.Search(context.Background(), "phone charger", WithTopK(2), WithSearchFilter(onlyElectronics))
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, "1", r.ID)
	}
}

func TestSearchWithUseANNOverride(t *testing.T) {
	eng := newCatalogEngine(t, WithANNThreshold(1))
	require.Equal(t, "hnsw", eng.GetIndexInfo().Kind)

	results, err := eng.Search(context.Background(), "phone charger", WithTopK(2), WithUseANN(false))
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestNilLoggerAndMetricsDoNotPanic(t *testing.T) {
	eng, err := New(32, WithEmbedder(bagOfWordsEmbedder{dim: 32}), WithLogger(nil), WithMetrics(nil))
	require.NoError(t, err)

	require.NoError(t, eng.Add(context.Background(), Item{ID: "1", Text: "Bathroom floor cleaner"}))

	_, err = eng.Search(context.Background(), "cleaner")
	require.NoError(t, err)
}

func TestSearchOnClosedEngineFails(t *testing.T) {
	eng := newCatalogEngine(t)
	require.NoError(t, eng.Close())

	_, err := eng.Search(context.Background(), "phone charger")
	assert.ErrorIs(t, err, ErrClosed)
}

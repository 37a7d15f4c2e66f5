package hybridsearch

import "github.com/arrowhead-dev/hybridsearch/ranker"

const (
	// DefaultTopK is the number of results returned when WithTopK is not given.
	DefaultTopK = 5

	// DefaultMinLength is the shortest query that will be searched at all.
	DefaultMinLength = 1
)

type searchOptions struct {
	topK      int
	threshold float32
	minLength int
	explain   bool
	filter    Filter
	useANN    *bool
}

func defaultSearchOptions() searchOptions {
	return searchOptions{
		topK:      DefaultTopK,
		threshold: 0,
		minLength: DefaultMinLength,
	}
}

// SearchOption configures a single Search call.
type SearchOption func(*searchOptions)

// WithTopK sets how many results Search returns at most. Default: 5.
func WithTopK(k int) SearchOption {
	return func(o *searchOptions) { o.topK = k }
}

// WithThreshold drops results whose blended score falls below min.
func WithThreshold(min float32) SearchOption {
	return func(o *searchOptions) { o.threshold = min }
}

// WithMinLength sets the shortest query Search will process; shorter
// queries return an empty result set without touching the embedder.
func WithMinLength(n int) SearchOption {
	return func(o *searchOptions) { o.minLength = n }
}

// WithExplain attaches the raw and normalized per-dimension scores and
// weights used to each SearchResult.
func WithExplain(explain bool) SearchOption {
	return func(o *searchOptions) { o.explain = explain }
}

// WithSearchFilter restricts candidates to those whose metadata passes f.
func WithSearchFilter(f Filter) SearchOption {
	return func(o *searchOptions) { o.filter = f }
}

// WithUseANN overrides the engine's default choice of HNSW vs. brute-force
// candidate retrieval for a single call.
func WithUseANN(use bool) SearchOption {
	return func(o *searchOptions) { o.useANN = &use }
}

// SearchResult is a single ranked hit returned from Search.
type SearchResult struct {
	ID      string
	Score   float32
	Item    Item
	Explain *ranker.Explain
}

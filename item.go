package hybridsearch

import "github.com/arrowhead-dev/hybridsearch/quantization"

// Item is a single document indexed by the engine: a stable id, the text
// it is embedded and fuzzy/keyword-matched against, and arbitrary
// metadata carried through to search results and filters.
type Item struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// record is an Item paired with its embedding, as held internally by the
// engine. The vector is stored in the engine's configured quantization,
// not as a raw float32 slice, so the scoring path and the snapshot
// format both read the same encoding. The record's position in
// Engine.items is also its HNSW node id.
type record struct {
	Item
	vector quantization.Encoded
}

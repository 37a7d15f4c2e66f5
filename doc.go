// Package hybridsearch provides an embeddable hybrid search engine: a
// quantized vector store, an HNSW approximate nearest-neighbor index, an
// LRU embedding cache, and a hybrid ranker that blends semantic, fuzzy and
// keyword scores, all behind a single Engine facade.
//
// # Quick Start
//
//	eng, _ := hybridsearch.New(384, hybridsearch.WithEmbedder(myEmbedder))
//	_ = eng.Build(ctx, items)
//	results, _ := eng.Search(ctx, "bathroom floor cleaner", hybridsearch.WithTopK(10))
//
// # Index selection
//
// Below the ANN threshold (default 1,000 items) the engine scores every
// item by brute force; at or above it, the HNSW graph, which the engine
// maintains from the first item, is queried instead. Both paths go through the same hybrid ranker, so result
// quality is continuous across the threshold even though the search
// strategy underneath is not.
package hybridsearch

package similarity

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/arrowhead-dev/hybridsearch/metric"
)

// Semantic returns the cosine similarity between a query embedding and an
// item embedding, in [-1, 1]. Embeddings are expected to be unit-norm, in
// which case this equals their dot product, but CosineSimilarity is used
// directly so the score stays well-defined for vectors that aren't.
func Semantic(query, item []float32) (float32, error) {
	return metric.CosineSimilarity(query, item)
}

// Fuzzy returns a Levenshtein-based similarity between two strings in
// [0, 1], where 1 means identical and 0 means the edit distance is at
// least as large as the longer string. Comparison is case-insensitive.
func Fuzzy(a, b string) float32 {
	if a == "" && b == "" {
		return 1
	}

	dist := smetrics.WagnerFischer(strings.ToLower(a), strings.ToLower(b), 1, 1, 1)

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}

	sim := 1 - float32(dist)/float32(maxLen)
	if sim < 0 {
		sim = 0
	}

	return sim
}

// Keyword returns the fraction of whitespace-separated query terms that
// appear as a case-insensitive substring of text. An empty query scores 0.
func Keyword(query, text string) float32 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	lower := strings.ToLower(text)

	var hits int
	for _, term := range terms {
		if strings.Contains(lower, term) {
			hits++
		}
	}

	return float32(hits) / float32(len(terms))
}

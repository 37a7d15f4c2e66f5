// Package similarity implements the three scoring kernels the hybrid
// ranker blends: semantic similarity over embeddings, fuzzy string
// similarity for typo tolerance, and keyword containment.
package similarity

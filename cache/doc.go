// Package cache implements the LRU embedding cache: a bounded cache of
// embedding vectors keyed by the (text, model) pair that produced them,
// so repeated embedding calls for the same text under the same model skip
// the embedder entirely. Keys are derived with a 32-bit MurmurHash3 of the
// text and model name, combined into a single composite key.
package cache

// Package ranker implements the hybrid ranker: it takes raw semantic,
// fuzzy, and keyword scores for a batch of candidates, normalizes each
// dimension independently across the batch (min-max), and combines them
// into a single score via a weighted convex combination.
package ranker

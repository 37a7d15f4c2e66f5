// Package metric implements the vector numeric kernels (dot product,
// magnitude, cosine similarity, squared L2) used throughout the engine.
package metric

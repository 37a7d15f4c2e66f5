// Package hnsw implements a Hierarchical Navigable Small World graph for
// approximate nearest-neighbor search over float32 vectors.
//
// Nodes are assigned a level via a geometric distribution; higher levels
// are sparse long-range shortcuts, level 0 holds every node. Insert
// descends greedily through the sparse levels to find an entry point
// close to the new vector, then runs a bounded best-first search
// (layer-search) at each level from the insertion level down to 0,
// linking the new node to its closest neighbors and pruning any
// neighbor whose degree grows past the configured maximum.
package hnsw

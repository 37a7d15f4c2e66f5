// Package queue implements a container/heap-backed priority queue used by
// the HNSW index for candidate and result-set bookkeeping during search
// and construction.
package queue

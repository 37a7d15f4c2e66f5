// Package embedder defines the embedding contract the engine depends on
// and adapts third-party embedding providers to it. An Embedder turns a
// piece of text into a unit-norm vector under a named model; the engine
// never calls out to a network itself, it only ever calls an Embedder the
// caller supplied.
package embedder

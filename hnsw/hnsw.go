package hnsw

import (
	"container/heap"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/arrowhead-dev/hybridsearch/metric"
	"github.com/arrowhead-dev/hybridsearch/queue"
)

// maxLevelCap bounds the geometric level assignment so a single unlucky
// draw cannot produce a pathologically tall graph.
const maxLevelCap = 16

// DistanceKind names a built-in distance function so it can be recorded in
// a serialized graph and resolved back into a DistanceFunc on load.
type DistanceKind string

const (
	// Cosine computes 1 - dot(a, b); callers are expected to pass unit-norm vectors.
	Cosine DistanceKind = "cosine"
	// Euclidean computes squared L2 distance.
	Euclidean DistanceKind = "euclidean"
)

// DistanceFunc computes the distance between two vectors; smaller is closer.
type DistanceFunc func(a, b []float32) (float32, error)

func resolveDistanceFunc(kind DistanceKind) DistanceFunc {
	switch kind {
	case Euclidean:
		return metric.SquaredL2
	default:
		return metric.CosineDistance
	}
}

// ErrDimensionMismatch reports a vector whose length does not match the graph's dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("hnsw: expected vector of dimension %d, got %d", e.Expected, e.Actual)
}

// ErrIDExists reports an Insert call for an id already present in the graph.
var ErrIDExists = errors.New("hnsw: id already present")

// Options configures graph construction and search.
type Options struct {
	// M is the maximum number of neighbors a node keeps per layer above 0.
	M int
	// EfConstruction is the candidate list size used while inserting.
	EfConstruction int
	// EfSearch is the default candidate list size used while searching.
	EfSearch int
	// Kind selects the built-in distance function; ignored if DistanceFunc is set.
	Kind DistanceKind
	// DistanceFunc overrides Kind with a custom distance function.
	DistanceFunc DistanceFunc `json:"-"`
}

// DefaultOptions returns the package defaults: M=16, efConstruction=200, efSearch=50, cosine distance.
func DefaultOptions() Options {
	return Options{
		M:              16,
		EfConstruction: 200,
		EfSearch:       50,
		Kind:           Cosine,
	}
}

// Option mutates Options during New.
type Option func(*Options)

// WithM sets the per-layer neighbor budget.
func WithM(m int) Option {
	return func(o *Options) { o.M = m }
}

// WithEfConstruction sets the candidate list size used during insertion.
func WithEfConstruction(ef int) Option {
	return func(o *Options) { o.EfConstruction = ef }
}

// WithEfSearch sets the default candidate list size used during search.
func WithEfSearch(ef int) Option {
	return func(o *Options) { o.EfSearch = ef }
}

// WithDistanceKind selects one of the built-in distance functions.
func WithDistanceKind(kind DistanceKind) Option {
	return func(o *Options) { o.Kind = kind }
}

// WithDistanceFunc overrides the distance function entirely.
func WithDistanceFunc(fn DistanceFunc) Option {
	return func(o *Options) { o.DistanceFunc = fn }
}

// Node is a single point in the graph together with its per-layer adjacency.
type Node struct {
	ID          uint32
	Vector      []float32
	Level       int
	Connections [][]uint32 // Connections[l] holds neighbor ids at layer l
}

// Result is a single match returned by Search.
type Result struct {
	ID       uint32
	Distance float32
}

// HNSW is a hierarchical navigable small world graph.
type HNSW struct {
	mu sync.Mutex

	dimension int
	opts      Options
	dist      DistanceFunc
	rng       *rand.Rand

	nodes      map[uint32]*Node
	entryPoint uint32
	hasEntry   bool
	maxLevel   int
}

// New creates an empty graph for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*HNSW, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("hnsw: dimension must be positive, got %d", dimension)
	}

	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.M <= 0 {
		return nil, fmt.Errorf("hnsw: M must be positive, got %d", opts.M)
	}

	dist := opts.DistanceFunc
	if dist == nil {
		dist = resolveDistanceFunc(opts.Kind)
	}

	return &HNSW{
		dimension: dimension,
		opts:      opts,
		dist:      dist,
		rng:       rand.New(rand.NewSource(1)),
		nodes:     make(map[uint32]*Node),
	}, nil
}

// Dimension returns the configured vector dimension.
func (h *HNSW) Dimension() int { return h.dimension }

// Len returns the number of nodes currently in the graph.
func (h *HNSW) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.nodes)
}

// MaxLevel returns the highest level currently present in the graph.
func (h *HNSW) MaxLevel() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.maxLevel
}

// EntryPoint returns the current entry point id and whether one exists.
func (h *HNSW) EntryPoint() (uint32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.entryPoint, h.hasEntry
}

// M returns the configured max-connections-per-node parameter.
func (h *HNSW) M() int { return h.opts.M }

// EfConstruction returns the configured construction-time search breadth.
func (h *HNSW) EfConstruction() int { return h.opts.EfConstruction }

// EfSearch returns the configured default query-time search breadth.
func (h *HNSW) EfSearch() int { return h.opts.EfSearch }

func (h *HNSW) randomLevel() int {
	level := 0
	for h.rng.Float64() < 1.0/float64(h.opts.M) && level < maxLevelCap {
		level++
	}

	return level
}

func (h *HNSW) maxConnections(level int) int {
	if level == 0 {
		return h.opts.M * 2
	}

	return h.opts.M
}

// Insert adds a vector at the given id. The id must not already be present.
func (h *HNSW) Insert(id uint32, vector []float32) error {
	if len(vector) != h.dimension {
		return &ErrDimensionMismatch{Expected: h.dimension, Actual: len(vector)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.nodes[id]; exists {
		return ErrIDExists
	}

	vec := append([]float32(nil), vector...)
	level := h.randomLevel()

	node := &Node{
		ID:          id,
		Vector:      vec,
		Level:       level,
		Connections: make([][]uint32, level+1),
	}
	for l := range node.Connections {
		node.Connections[l] = []uint32{}
	}

	if len(h.nodes) == 0 {
		h.nodes[id] = node
		h.entryPoint = id
		h.hasEntry = true
		h.maxLevel = level

		return nil
	}

	entry := h.nodes[h.entryPoint]
	curr := entry

	currDist, err := h.dist(vec, curr.Vector)
	if err != nil {
		return err
	}

	if level < h.maxLevel {
		curr, currDist, err = h.greedyDescend(vec, curr, h.maxLevel, level)
		if err != nil {
			return err
		}
	}

	h.nodes[id] = node

	for l := min(level, h.maxLevel); l >= 0; l-- {
		candidates, err := h.layerSearch(vec, curr.ID, currDist, h.opts.EfConstruction, l)
		if err != nil {
			return err
		}

		if len(candidates) == 0 {
			continue
		}

		curr = h.nodes[candidates[0].Node]
		currDist = candidates[0].Distance

		limit := h.maxConnections(l)

		ids := make([]uint32, len(candidates))
		for i, c := range candidates {
			ids[i] = c.Node
		}

		if len(ids) > limit {
			ids = ids[:limit]
		}

		node.Connections[l] = append([]uint32(nil), ids...)

		for _, nbID := range ids {
			h.link(nbID, id, l)
		}
	}

	if level > h.maxLevel {
		h.entryPoint = id
		h.maxLevel = level
	}

	return nil
}

// link adds a reciprocal edge from u to v at the given level, pruning u's
// neighbor list back down to its budget and symmetrically removing the
// reverse edge from whichever neighbors were dropped.
func (h *HNSW) link(u, v uint32, level int) {
	un := h.nodes[u]
	if un == nil || level >= len(un.Connections) {
		return
	}

	un.Connections[level] = append(un.Connections[level], v)

	limit := h.maxConnections(level)
	if len(un.Connections[level]) <= limit {
		return
	}

	kept, dropped := h.nClosest(un.Vector, un.Connections[level], limit)
	un.Connections[level] = kept

	for _, d := range dropped {
		h.unlink(d, u, level)
	}
}

// unlink removes node from target's adjacency list at level, if present.
func (h *HNSW) unlink(node, target uint32, level int) {
	n := h.nodes[node]
	if n == nil || level >= len(n.Connections) {
		return
	}

	conns := n.Connections[level]
	for i, id := range conns {
		if id == target {
			n.Connections[level] = append(conns[:i], conns[i+1:]...)
			return
		}
	}
}

// nClosest sorts ids by distance to ref and splits them into the closest
// `limit` (kept) and the remainder (dropped).
func (h *HNSW) nClosest(ref []float32, ids []uint32, limit int) (kept, dropped []uint32) {
	type cand struct {
		id   uint32
		dist float32
	}

	cands := make([]cand, 0, len(ids))
	for _, id := range ids {
		n := h.nodes[id]
		if n == nil {
			continue
		}

		d, err := h.dist(ref, n.Vector)
		if err != nil {
			continue
		}

		cands = append(cands, cand{id: id, dist: d})
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

	if len(cands) <= limit {
		kept = make([]uint32, len(cands))
		for i, c := range cands {
			kept[i] = c.id
		}

		return kept, nil
	}

	kept = make([]uint32, limit)
	for i, c := range cands[:limit] {
		kept[i] = c.id
	}

	dropped = make([]uint32, len(cands)-limit)
	for i, c := range cands[limit:] {
		dropped[i] = c.id
	}

	return kept, dropped
}

// greedyDescend walks down from fromLevel to toLevel+1, moving to a
// strictly closer neighbor at each level until no neighbor improves on the
// current node, then stepping down a level.
func (h *HNSW) greedyDescend(q []float32, from *Node, fromLevel, toLevel int) (*Node, float32, error) {
	curr := from

	currDist, err := h.dist(q, curr.Vector)
	if err != nil {
		return nil, 0, err
	}

	for level := fromLevel; level > toLevel; level-- {
		improved := true
		for improved {
			improved = false

			if level >= len(curr.Connections) {
				break
			}

			for _, nbID := range curr.Connections[level] {
				nb := h.nodes[nbID]
				if nb == nil {
					continue
				}

				d, err := h.dist(q, nb.Vector)
				if err != nil {
					return nil, 0, err
				}

				if d < currDist {
					curr = nb
					currDist = d
					improved = true
				}
			}
		}
	}

	return curr, currDist, nil
}

// layerSearch runs a bounded best-first search at the given level, seeded
// from entryID, and returns up to ef results sorted by ascending distance.
func (h *HNSW) layerSearch(q []float32, entryID uint32, entryDist float32, ef, level int) ([]*queue.PriorityQueueItem, error) {
	visited := &bitset.BitSet{}
	visited.Set(uint(entryID))

	candidates := &queue.PriorityQueue{Order: false}
	heap.Init(candidates)
	heap.Push(candidates, &queue.PriorityQueueItem{Node: entryID, Distance: entryDist})

	results := &queue.PriorityQueue{Order: true}
	heap.Init(results)
	heap.Push(results, &queue.PriorityQueueItem{Node: entryID, Distance: entryDist})

	for candidates.Len() > 0 {
		cand := heap.Pop(candidates).(*queue.PriorityQueueItem)

		if results.Len() >= ef {
			worst := results.Top().(*queue.PriorityQueueItem)
			if cand.Distance > worst.Distance {
				break
			}
		}

		node := h.nodes[cand.Node]
		if node == nil || level >= len(node.Connections) {
			continue
		}

		for _, nbID := range node.Connections[level] {
			if visited.Test(uint(nbID)) {
				continue
			}
			visited.Set(uint(nbID))

			nb := h.nodes[nbID]
			if nb == nil {
				continue
			}

			dist, err := h.dist(q, nb.Vector)
			if err != nil {
				return nil, err
			}

			if results.Len() < ef {
				heap.Push(results, &queue.PriorityQueueItem{Node: nbID, Distance: dist})
				heap.Push(candidates, &queue.PriorityQueueItem{Node: nbID, Distance: dist})

				continue
			}

			worst := results.Top().(*queue.PriorityQueueItem)
			if dist < worst.Distance {
				heap.Pop(results)
				heap.Push(results, &queue.PriorityQueueItem{Node: nbID, Distance: dist})
				heap.Push(candidates, &queue.PriorityQueueItem{Node: nbID, Distance: dist})
			}
		}
	}

	out := make([]*queue.PriorityQueueItem, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(*queue.PriorityQueueItem)
	}

	return out, nil
}

// Search returns the k approximate nearest neighbors of q. efSearch, if
// greater than 0, overrides the graph's default search candidate list size.
func (h *HNSW) Search(q []float32, k int, efSearch int) ([]Result, error) {
	if len(q) != h.dimension {
		return nil, &ErrDimensionMismatch{Expected: h.dimension, Actual: len(q)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.hasEntry {
		return nil, nil
	}

	ef := efSearch
	if ef <= 0 {
		ef = h.opts.EfSearch
	}
	if ef < k {
		ef = k
	}

	entry := h.nodes[h.entryPoint]

	curr := entry
	currDist, err := h.dist(q, entry.Vector)
	if err != nil {
		return nil, err
	}

	if h.maxLevel > 0 {
		curr, currDist, err = h.greedyDescend(q, entry, h.maxLevel, 0)
		if err != nil {
			return nil, err
		}
	}

	candidates, err := h.layerSearch(q, curr.ID, currDist, ef, 0)
	if err != nil {
		return nil, err
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{ID: c.Node, Distance: c.Distance}
	}

	return out, nil
}

// BruteSearch returns the k exact nearest neighbors of q, scanning every node.
func (h *HNSW) BruteSearch(q []float32, k int) ([]Result, error) {
	if len(q) != h.dimension {
		return nil, &ErrDimensionMismatch{Expected: h.dimension, Actual: len(q)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Result, 0, len(h.nodes))

	for id, n := range h.nodes {
		d, err := h.dist(q, n.Vector)
		if err != nil {
			return nil, err
		}

		out = append(out, Result{ID: id, Distance: d})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })

	if len(out) > k {
		out = out[:k]
	}

	return out, nil
}

// Remove deletes id from the graph, unlinking it from every neighbor at
// every level it participated in. Removing a nonexistent id is a no-op
// that reports false.
func (h *HNSW) Remove(id uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	node, ok := h.nodes[id]
	if !ok {
		return false
	}

	for level, neighbors := range node.Connections {
		for _, nbID := range neighbors {
			h.unlink(nbID, id, level)
		}
	}

	delete(h.nodes, id)

	if id == h.entryPoint {
		h.reelectEntryPoint()
	}

	return true
}

func (h *HNSW) reelectEntryPoint() {
	if len(h.nodes) == 0 {
		h.hasEntry = false
		h.entryPoint = 0
		h.maxLevel = 0

		return
	}

	var (
		bestID    uint32
		bestLevel = -1
	)

	for id, n := range h.nodes {
		if n.Level > bestLevel {
			bestID = id
			bestLevel = n.Level
		}
	}

	h.entryPoint = bestID
	h.maxLevel = bestLevel
	h.hasEntry = true
}

// Vector returns a copy of the vector stored for id, if present.
func (h *HNSW) Vector(id uint32) ([]float32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.nodes[id]
	if !ok {
		return nil, false
	}

	return append([]float32(nil), n.Vector...), true
}


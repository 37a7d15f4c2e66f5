package hybridsearch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/arrowhead-dev/hybridsearch/cache"
	"github.com/arrowhead-dev/hybridsearch/embedder"
	"github.com/arrowhead-dev/hybridsearch/hnsw"
	"github.com/arrowhead-dev/hybridsearch/quantization"
	"github.com/arrowhead-dev/hybridsearch/ranker"
	"github.com/arrowhead-dev/hybridsearch/similarity"
	"github.com/arrowhead-dev/hybridsearch/updater"
)

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("hybridsearch: engine is closed")

// embedConcurrency bounds how many texts Build embeds at once.
const embedConcurrency = 8

// opKind distinguishes background updater operations.
type opKind int

const (
	opAdd opKind = iota
	opRemove
)

type updateOp struct {
	kind opKind
	item Item
	id   string
}

// targetID returns the id the operation applies to, for add or remove alike.
func (op updateOp) targetID() string {
	if op.kind == opAdd {
		return op.item.ID
	}
	return op.id
}

// IndexInfo describes the engine's current index strategy and size.
type IndexInfo struct {
	Kind           string
	ItemCount      int
	Dimension      int
	M              int
	EfConstruction int
	EfSearch       int
	CacheHitRate   float64
}

// String renders a human-readable one-line summary, suitable for logs or a
// status endpoint.
func (i IndexInfo) String() string {
	vectorBytes := uint64(i.ItemCount) * uint64(i.Dimension) * 4

	return fmt.Sprintf("%s index: %s items (~%s vectors), dim=%d, cache hit rate %.1f%%",
		i.Kind, humanize.Comma(int64(i.ItemCount)), humanize.Bytes(vectorBytes), i.Dimension, i.CacheHitRate*100)
}

// Engine is a hybrid search index: it embeds item text, stores the
// resulting vectors in both a flat table and an HNSW graph, searches one
// or the other depending on size, and ranks candidates with a blend of semantic, fuzzy, and keyword
// scores.
//
// An Engine is safe for concurrent use.
type Engine struct {
	mu        sync.RWMutex
	dimension int
	opts      options

	items   []record
	idIndex map[string]int

	useHNSW bool
	ann     *hnsw.HNSW
	cache   *cache.LRU

	updater *updater.Updater[updateOp]
	closed  bool
}

// New creates an Engine for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*Engine, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("hybridsearch: dimension must be positive, got %d", dimension)
	}

	opts := applyOptions(optFns)

	ann, err := hnsw.New(dimension, opts.hnswOptions...)
	if err != nil {
		return nil, translateError(err)
	}

	e := &Engine{
		dimension: dimension,
		opts:      opts,
		idIndex:   make(map[string]int),
		ann:       ann,
		cache:     cache.NewLRU(opts.cacheSize),
	}

	up, err := updater.New[updateOp](e.processBatch,
		updater.WithDebounce(opts.updaterDebounce),
		updater.WithErrorHandler(func(op updateOp, err error) {
			e.opts.logger.LogBatchItem(op.targetID(), err)
		}),
	)
	if err != nil {
		return nil, translateError(err)
	}
	e.updater = up

	return e, nil
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// embedOrCache embeds text through the engine's configured Embedder,
// serving from the embedding cache when the (text, model) pair has been
// seen before.
func (e *Engine) embedOrCache(ctx context.Context, text string) ([]float32, error) {
	if e.opts.embedder == nil {
		return nil, embedder.ErrNil
	}

	model := e.opts.embedder.Model()

	if v, ok := e.cache.Get(text, model); ok {
		e.opts.metrics.RecordCacheAccess(true)
		return v, nil
	}
	e.opts.metrics.RecordCacheAccess(false)

	v, err := e.opts.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	v = embedder.Normalize(v)
	if len(v) != e.dimension {
		return nil, &hnsw.ErrDimensionMismatch{Expected: e.dimension, Actual: len(v)}
	}

	e.cache.Put(text, model, v)

	return v, nil
}

// Build replaces the engine's entire contents with items, embedding each
// item's text with bounded concurrency before indexing it. HNSW is
// enabled for the resulting index when len(items) meets the configured
// ANN threshold.
func (e *Engine) Build(ctx context.Context, items []Item) error {
	if e.isClosed() {
		return ErrClosed
	}
	if e.opts.embedder == nil {
		return translateError(embedder.ErrNil)
	}

	vectors := make([][]float32, len(items))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, embedConcurrency)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			v, err := e.embedOrCache(gctx, it.Text)
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return translateError(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ann, err := hnsw.New(e.dimension, e.opts.hnswOptions...)
	if err != nil {
		return translateError(err)
	}

	newItems := make([]record, len(items))
	newIndex := make(map[string]int, len(items))
	for i, it := range items {
		enc, err := quantization.Encode(e.opts.quantization, vectors[i])
		if err != nil {
			return translateError(err)
		}

		newItems[i] = record{Item: it, vector: enc}
		newIndex[it.ID] = i
		if err := ann.Insert(uint32(i), vectors[i]); err != nil {
			return translateError(err)
		}
	}

	e.items = newItems
	e.idIndex = newIndex
	e.ann = ann
	e.useHNSW = len(items) >= e.opts.annThreshold

	e.opts.logger.WithCount(len(items)).Infow("build completed", "useHNSW", e.useHNSW)

	return nil
}

// applyAdd inserts or replaces vec under item.ID, rebuilding the HNSW
// node for that slot. Callers must hold e.mu.
func (e *Engine) applyAdd(item Item, vec []float32) error {
	enc, err := quantization.Encode(e.opts.quantization, vec)
	if err != nil {
		return err
	}

	if idx, exists := e.idIndex[item.ID]; exists {
		e.ann.Remove(uint32(idx))
		e.items[idx] = record{Item: item, vector: enc}
		return e.ann.Insert(uint32(idx), vec)
	}

	idx := len(e.items)
	e.items = append(e.items, record{Item: item, vector: enc})
	e.idIndex[item.ID] = idx

	if err := e.ann.Insert(uint32(idx), vec); err != nil {
		return err
	}

	if !e.useHNSW && len(e.items) >= e.opts.annThreshold {
		e.useHNSW = true
	}

	return nil
}

func (e *Engine) applyAddWithEmbed(ctx context.Context, item Item) error {
	vec, err := e.embedOrCache(ctx, item.Text)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.applyAdd(item, vec)
}

// applyRemove deletes id, compacting the item table and rebuilding the
// HNSW graph so node ids keep tracking table positions. Callers must NOT
// hold e.mu.
func (e *Engine) applyRemove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.idIndex[id]
	if !ok {
		return nil
	}

	e.items = append(e.items[:idx], e.items[idx+1:]...)
	delete(e.idIndex, id)
	for i := idx; i < len(e.items); i++ {
		e.idIndex[e.items[i].ID] = i
	}

	ann, err := hnsw.New(e.dimension, e.opts.hnswOptions...)
	if err != nil {
		return err
	}
	for i, r := range e.items {
		vec, err := quantization.Decode(r.vector)
		if err != nil {
			return err
		}
		if err := ann.Insert(uint32(i), vec); err != nil {
			return err
		}
	}
	e.ann = ann

	return nil
}

// Add inserts item, or replaces the existing item sharing its ID,
// embedding its text synchronously.
func (e *Engine) Add(ctx context.Context, item Item) error {
	if e.isClosed() {
		return ErrClosed
	}

	start := time.Now()
	err := e.applyAddWithEmbed(ctx, item)
	e.opts.logger.LogAdd(item.ID, err)
	e.opts.metrics.RecordAdd(time.Since(start), err)

	return translateError(err)
}

// Remove deletes the item with the given id. Removing an id that does
// not exist is a no-op, not an error.
func (e *Engine) Remove(id string) error {
	if e.isClosed() {
		return ErrClosed
	}

	start := time.Now()
	err := e.applyRemove(id)
	e.opts.logger.LogRemove(id, err)
	e.opts.metrics.RecordRemove(time.Since(start), err)

	return translateError(err)
}

// QueueAdd enqueues item for asynchronous embedding and insertion via the
// background updater, returning immediately.
func (e *Engine) QueueAdd(item Item) {
	e.updater.Enqueue(updateOp{kind: opAdd, item: item})
}

// QueueRemove enqueues id for asynchronous removal via the background updater.
func (e *Engine) QueueRemove(id string) {
	e.updater.Enqueue(updateOp{kind: opRemove, id: id})
}

// Flush cancels the background updater's debounce timer and processes
// any pending batch immediately.
func (e *Engine) Flush() {
	e.updater.Flush()
}

// WaitForCompletion blocks until every batch already submitted to the
// background updater, including one triggered by Flush, has finished
// processing. Items still waiting on the debounce timer are not part of a
// submitted batch and are not waited for.
func (e *Engine) WaitForCompletion() {
	e.updater.Wait()
}

// UpdaterStats reports the background updater's current counters.
func (e *Engine) UpdaterStats() updater.Stats {
	return e.updater.Stats()
}

func (e *Engine) processBatch(ctx context.Context, batch []updateOp) error {
	var firstErr error
	for _, op := range batch {
		var err error
		switch op.kind {
		case opAdd:
			err = e.applyAddWithEmbed(ctx, op.item)
		case opRemove:
			err = e.applyRemove(op.id)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	e.opts.logger.LogBatch(len(batch), firstErr)
	e.opts.metrics.RecordBatch(len(batch), 0, firstErr)

	return firstErr
}

// Get returns the item with the given id.
func (e *Engine) Get(id string) (Item, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, ok := e.idIndex[id]
	if !ok {
		return Item{}, false
	}

	return e.items[idx].Item, true
}

// GetAll returns a copy of every item currently indexed.
func (e *Engine) GetAll() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Item, len(e.items))
	for i, r := range e.items {
		out[i] = r.Item
	}

	return out
}

// Size returns the number of items currently indexed.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.items)
}

// SetWeights replaces the ranker weights used by subsequent searches.
// Weights with a negative component, or with no positive component, are
// rejected with ErrInvalidWeights.
func (e *Engine) SetWeights(w ranker.Weights) error {
	if w.Semantic < 0 || w.Fuzzy < 0 || w.Keyword < 0 || (w.Semantic+w.Fuzzy+w.Keyword) <= 0 {
		return ErrInvalidWeights
	}

	e.mu.Lock()
	e.opts.weights = w.Normalize()
	e.mu.Unlock()

	return nil
}

// GetIndexInfo reports the engine's current index strategy and size.
func (e *Engine) GetIndexInfo() IndexInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	info := IndexInfo{
		ItemCount:    len(e.items),
		Dimension:    e.dimension,
		CacheHitRate: e.cache.HitRate(),
	}

	if e.useHNSW {
		info.Kind = "hnsw"
		info.M = e.ann.M()
		info.EfConstruction = e.ann.EfConstruction()
		info.EfSearch = e.ann.EfSearch()
	} else {
		info.Kind = "flat"
	}

	return info
}

// Search embeds query and returns the top-scoring items, blending
// semantic, fuzzy, and keyword similarity per the engine's configured
// weights.
//
// Candidates come from the HNSW graph (2*topK nearest neighbors) when the
// engine has crossed its ANN threshold, or from a brute-force scan of
// every item otherwise; WithUseANN overrides this choice per call.
func (e *Engine) Search(ctx context.Context, query string, optFns ...SearchOption) ([]SearchResult, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}

	start := time.Now()
	opts := defaultSearchOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if len(query) < opts.minLength {
		e.opts.logger.LogSearch(query, opts.topK, 0, nil)
		return nil, nil
	}

	qvec, err := e.embedOrCache(ctx, query)
	if err != nil {
		e.opts.metrics.RecordSearch(opts.topK, 0, time.Since(start), err)
		return nil, translateError(err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	useANN := e.useHNSW
	if opts.useANN != nil {
		useANN = *opts.useANN
	}

	type indexed struct {
		idx      int
		semantic float32
	}

	var candidates []indexed

	if useANN && e.ann.Len() > 0 {
		results, err := e.ann.Search(qvec, opts.topK*2, 0)
		if err != nil {
			e.opts.metrics.RecordSearch(opts.topK, 0, time.Since(start), err)
			return nil, translateError(err)
		}

		candidates = make([]indexed, 0, len(results))
		for _, r := range results {
			candidates = append(candidates, indexed{idx: int(r.ID), semantic: 1 - r.Distance})
		}
	} else {
		queryEncoded := quantization.Encoded{Kind: quantization.Float32, Data: quantization.EncodeFloat32(qvec)}

		candidates = make([]indexed, len(e.items))
		for i, rec := range e.items {
			semantic, err := queryEncoded.Dot(rec.vector)
			if err != nil {
				semantic = 0
			}
			candidates[i] = indexed{idx: i, semantic: semantic}
		}
	}

	rankCandidates := make([]ranker.Candidate, 0, len(candidates))
	for _, c := range candidates {
		rec := e.items[c.idx]
		if opts.filter != nil && !opts.filter(rec.Metadata) {
			continue
		}

		rankCandidates = append(rankCandidates, ranker.Candidate{
			ID:       rec.ID,
			Semantic: c.semantic,
			Fuzzy:    similarity.Fuzzy(query, rec.Text),
			Keyword:  similarity.Keyword(query, rec.Text),
		})
	}

	ranked := ranker.Rank(rankCandidates, e.opts.weights, opts.explain)

	out := make([]SearchResult, 0, opts.topK)
	for _, r := range ranked {
		if r.Score < opts.threshold {
			continue
		}

		idx, ok := e.idIndex[r.ID]
		if !ok {
			continue
		}

		out = append(out, SearchResult{
			ID:      r.ID,
			Score:   r.Score,
			Item:    e.items[idx].Item,
			Explain: r.Explain,
		})

		if len(out) >= opts.topK {
			break
		}
	}

	e.opts.logger.LogSearch(query, opts.topK, len(out), nil)
	e.opts.metrics.RecordSearch(opts.topK, len(out), time.Since(start), nil)

	return out, nil
}

// Close drains the background updater and releases its worker pool. The
// engine must not be used afterward.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	return e.updater.Close()
}

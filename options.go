package hybridsearch

import (
	"time"

	"github.com/arrowhead-dev/hybridsearch/embedder"
	"github.com/arrowhead-dev/hybridsearch/hnsw"
	"github.com/arrowhead-dev/hybridsearch/quantization"
	"github.com/arrowhead-dev/hybridsearch/ranker"
)

type options struct {
	weights         ranker.Weights
	annThreshold    int
	cacheSize       int
	quantization    quantization.Kind
	hnswOptions     []hnsw.Option
	updaterDebounce time.Duration
	embedder        embedder.Embedder
	logger          *Logger
	metrics         MetricsCollector
}

// Option configures an Engine at construction time.
type Option func(*options)

// WithWeights sets the hybrid ranker's semantic/fuzzy/keyword weights.
// They are normalized to sum to 1 at use time; see ranker.Weights.Normalize.
func WithWeights(w ranker.Weights) Option {
	return func(o *options) { o.weights = w }
}

// WithANNThreshold sets the item count at or above which the engine switches
// from brute-force scoring to the HNSW index. Default: 1000.
func WithANNThreshold(threshold int) Option {
	return func(o *options) { o.annThreshold = threshold }
}

// WithHNSWOptions passes configuration through to the underlying HNSW graph.
func WithHNSWOptions(opts ...hnsw.Option) Option {
	return func(o *options) { o.hnswOptions = opts }
}

// WithCacheSize sets the embedding cache's capacity, in entries. Default: 10000.
func WithCacheSize(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

// WithQuantization sets the encoding vectors are stored in, both in memory
// and in snapshots. Default: Float32.
func WithQuantization(kind quantization.Kind) Option {
	return func(o *options) { o.quantization = kind }
}

// WithUpdaterDebounce sets how long the background updater waits after the
// last enqueued change before flushing a batch. Default: 100ms.
func WithUpdaterDebounce(d time.Duration) Option {
	return func(o *options) { o.updaterDebounce = d }
}

// WithEmbedder configures the Embedder used to turn item text into vectors.
// Required for Build, Add, and text-query Search; nil disables them.
func WithEmbedder(e embedder.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithLogger configures structured logging. Pass nil to disable logging;
// the engine falls back to a no-op logger rather than holding a nil one.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithProductionLogger is a convenience wrapper for WithLogger(NewProductionLogger()).
func WithProductionLogger() Option {
	return func(o *options) { o.logger = NewProductionLogger() }
}

// WithMetrics configures a metrics collector. Pass nil to disable metrics
// collection; the engine falls back to NoopMetricsCollector rather than
// holding a nil interface.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		weights:         ranker.DefaultWeights(),
		annThreshold:    1000,
		cacheSize:       10000,
		quantization:    quantization.Float32,
		updaterDebounce: 100 * time.Millisecond,
		logger:          NoopLogger(),
		metrics:         NoopMetricsCollector{},
	}

	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}

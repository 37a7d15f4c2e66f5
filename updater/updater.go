package updater

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Processor handles one batch of queued items. It runs on the updater's
// single background worker, so batches for the same updater never run
// concurrently with each other.
type Processor[T any] func(ctx context.Context, batch []T) error

// ErrorHandler is invoked once per item in a batch that failed to
// process, letting callers report which specific items were affected
// rather than only the batch-level error.
type ErrorHandler[T any] func(item T, err error)

// Stats reports the updater's lifetime counters.
type Stats struct {
	TotalProcessed uint64
	PendingCount   int
	BatchCount     uint64
	ErrorCount     uint64
	AvgBatchSize   float64
	IsProcessing   bool
}

// Updater batches items enqueued via Enqueue behind a debounce timer and
// hands each resulting batch to processor on a single background worker.
type Updater[T any] struct {
	mu         sync.Mutex
	pending    []T
	debounce   time.Duration
	maxBatch   int
	timer      *time.Timer
	pool       *ants.Pool
	processor  Processor[T]
	onError    ErrorHandler[T]
	wg         sync.WaitGroup
	processing atomic.Bool

	totalProcessed atomic.Uint64
	batchCount     atomic.Uint64
	errorCount     atomic.Uint64

	closed bool
}

// Option configures an Updater.
type Option func(*config)

type config struct {
	debounce time.Duration
	maxBatch int
	onError  any
}

// WithDebounce sets how long the updater waits after the last Enqueue
// before flushing the pending batch. Default: 250ms.
func WithDebounce(d time.Duration) Option {
	return func(c *config) { c.debounce = d }
}

// WithMaxBatch caps how many pending items trigger an immediate flush,
// bypassing the debounce timer. Zero disables the cap. Default: 0.
func WithMaxBatch(n int) Option {
	return func(c *config) { c.maxBatch = n }
}

// WithErrorHandler registers a callback invoked once per item in a batch
// that failed to process, so callers can report which specific items
// were affected rather than only the batch-level error. T must match
// the type parameter the Updater is created with.
func WithErrorHandler[T any](h ErrorHandler[T]) Option {
	return func(c *config) { c.onError = h }
}

// New creates an Updater backed by a single-worker pool.
func New[T any](processor Processor[T], optFns ...Option) (*Updater[T], error) {
	cfg := config{debounce: 250 * time.Millisecond}
	for _, fn := range optFns {
		fn(&cfg)
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("updater: create worker pool: %w", err)
	}

	var onError ErrorHandler[T]
	if cfg.onError != nil {
		onError, _ = cfg.onError.(ErrorHandler[T])
	}

	return &Updater[T]{
		debounce:  cfg.debounce,
		maxBatch:  cfg.maxBatch,
		pool:      pool,
		processor: processor,
		onError:   onError,
	}, nil
}

// Enqueue adds item to the pending batch and (re)arms the debounce timer.
func (u *Updater[T]) Enqueue(item T) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return
	}

	u.pending = append(u.pending, item)

	if u.maxBatch > 0 && len(u.pending) >= u.maxBatch {
		if u.timer != nil {
			u.timer.Stop()
			u.timer = nil
		}
		u.flushLocked()

		return
	}

	if u.timer == nil {
		u.timer = time.AfterFunc(u.debounce, u.onTimer)
	} else {
		u.timer.Reset(u.debounce)
	}
}

func (u *Updater[T]) onTimer() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.timer = nil
	u.flushLocked()
}

// Flush cancels any pending debounce wait and submits the current batch immediately.
func (u *Updater[T]) Flush() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}

	u.flushLocked()
}

func (u *Updater[T]) flushLocked() {
	if len(u.pending) == 0 {
		return
	}

	batch := u.pending
	u.pending = nil

	u.wg.Add(1)

	err := u.pool.Submit(func() {
		defer u.wg.Done()

		u.processing.Store(true)
		defer u.processing.Store(false)

		if err := u.processor(context.Background(), batch); err != nil {
			u.errorCount.Add(1)

			if u.onError != nil {
				for _, item := range batch {
					u.onError(item, err)
				}
			}
		}

		u.totalProcessed.Add(uint64(len(batch)))
		u.batchCount.Add(1)
	})
	if err != nil {
		u.wg.Done()
		u.errorCount.Add(1)
	}
}

// Wait blocks until every submitted batch so far has finished processing.
func (u *Updater[T]) Wait() {
	u.wg.Wait()
}

// Stats returns a snapshot of the updater's counters.
func (u *Updater[T]) Stats() Stats {
	u.mu.Lock()
	pending := len(u.pending)
	u.mu.Unlock()

	batches := u.batchCount.Load()
	total := u.totalProcessed.Load()

	avg := 0.0
	if batches > 0 {
		avg = float64(total) / float64(batches)
	}

	return Stats{
		TotalProcessed: total,
		PendingCount:   pending,
		BatchCount:     batches,
		ErrorCount:     u.errorCount.Load(),
		AvgBatchSize:   avg,
		IsProcessing:   u.processing.Load(),
	}
}

// Close flushes any pending batch, waits for it to finish, and releases the worker pool.
func (u *Updater[T]) Close() error {
	u.Flush()
	u.Wait()

	u.mu.Lock()
	u.closed = true
	u.mu.Unlock()

	u.pool.Release()

	return nil
}

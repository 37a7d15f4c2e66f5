package hybridsearch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational counters after each engine
// operation. Implement this to integrate with a monitoring system.
type MetricsCollector interface {
	// RecordAdd is called after each Add/Upsert operation.
	RecordAdd(duration time.Duration, err error)

	// RecordRemove is called after each Remove operation.
	RecordRemove(duration time.Duration, err error)

	// RecordSearch is called after each Search operation.
	RecordSearch(k int, resultCount int, duration time.Duration, err error)

	// RecordBatch is called after each background updater batch.
	RecordBatch(count int, duration time.Duration, err error)

	// RecordCacheAccess is called after each embedding cache lookup.
	RecordCacheAccess(hit bool)
}

// NoopMetricsCollector discards every recorded metric.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)              {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)           {}
func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordCacheAccess(bool)                      {}

// BasicMetricsCollector accumulates counters in memory, useful for
// debugging and simple dashboards without an external dependency.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddErrors        atomic.Int64
	AddTotalNanos    atomic.Int64
	RemoveCount      atomic.Int64
	RemoveErrors     atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	BatchErrors      atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
}

func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordSearch(k, resultCount int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordBatch(count int, duration time.Duration, err error) {
	b.BatchCount.Add(1)
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordCacheAccess(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// GetStats returns a snapshot of the collected counters.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		AddAvgNanos:    avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		RemoveCount:    b.RemoveCount.Load(),
		RemoveErrors:   b.RemoveErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		BatchCount:     b.BatchCount.Load(),
		BatchErrors:    b.BatchErrors.Load(),
		CacheHits:      b.CacheHits.Load(),
		CacheMisses:    b.CacheMisses.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}

	return total / count
}

// BasicMetricsStats is a point-in-time snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	AddCount       int64
	AddErrors      int64
	AddAvgNanos    int64
	RemoveCount    int64
	RemoveErrors   int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	BatchCount     int64
	BatchErrors    int64
	CacheHits      int64
	CacheMisses    int64
}

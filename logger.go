package hybridsearch

import (
	"go.uber.org/zap"
)

// Logger wraps a zap.SugaredLogger with hybridsearch-specific field helpers.
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger wraps an existing zap.Logger.
func NewLogger(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}

	return &Logger{SugaredLogger: l.Sugar()}
}

// NewProductionLogger creates a Logger using zap's production configuration.
func NewProductionLogger() *Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return NoopLogger()
	}

	return NewLogger(l)
}

// NewDevelopmentLogger creates a Logger using zap's development configuration
// (human-readable, caller and stack traces on warn+).
func NewDevelopmentLogger() *Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return NoopLogger()
	}

	return NewLogger(l)
}

// NoopLogger discards all log output.
func NoopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// WithID returns a Logger with an item id field attached.
func (l *Logger) WithID(id string) *Logger {
	return &Logger{SugaredLogger: l.With("id", id)}
}

// WithCount returns a Logger with a count field attached.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{SugaredLogger: l.With("count", count)}
}

// LogAdd logs the outcome of an Add/Upsert operation.
func (l *Logger) LogAdd(id string, err error) {
	if err != nil {
		l.Errorw("add failed", "id", id, "error", err)
		return
	}

	l.Debugw("add completed", "id", id)
}

// LogRemove logs the outcome of a Remove operation.
func (l *Logger) LogRemove(id string, err error) {
	if err != nil {
		l.Errorw("remove failed", "id", id, "error", err)
		return
	}

	l.Debugw("remove completed", "id", id)
}

// LogSearch logs the outcome of a Search operation.
func (l *Logger) LogSearch(query string, k, results int, err error) {
	if err != nil {
		l.Errorw("search failed", "query", query, "k", k, "error", err)
		return
	}

	l.Debugw("search completed", "query", query, "k", k, "results", results)
}

// LogSnapshot logs the outcome of a Save/Load operation.
func (l *Logger) LogSnapshot(op, path string, err error) {
	if err != nil {
		l.Errorw(op+" failed", "path", path, "error", err)
		return
	}

	l.Infow(op+" completed", "path", path)
}

// LogBatch logs the outcome of a background updater batch.
func (l *Logger) LogBatch(count int, err error) {
	if err != nil {
		l.Warnw("batch update completed with errors", "count", count, "error", err)
		return
	}

	l.Debugw("batch update completed", "count", count)
}

// LogBatchItem logs a single item's failure within a failed background
// updater batch.
func (l *Logger) LogBatchItem(id string, err error) {
	l.Warnw("batch item failed", "id", id, "error", err)
}

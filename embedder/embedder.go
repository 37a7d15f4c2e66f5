package embedder

import (
	"context"
	"errors"

	"github.com/arrowhead-dev/hybridsearch/metric"
)

// ErrNil is returned by engine operations that need to embed text (Build,
// Add, Search) when no Embedder was configured.
var ErrNil = errors.New("embedder: no embedder configured")

// Embedder turns text into a unit-norm vector under a named model. The
// same (text, model) pair must always be embedded the same way; the
// engine's embedding cache depends on that determinism.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Normalize rescales v to unit length in place and returns it. A
// zero-magnitude vector is returned unchanged.
func Normalize(v []float32) []float32 {
	mag := metric.Magnitude(v)
	if mag == 0 {
		return v
	}

	for i := range v {
		v[i] /= mag
	}

	return v
}

// Func adapts a plain function into an Embedder.
type Func struct {
	Model_ string
	Fn     func(ctx context.Context, text string) ([]float32, error)
}

// Embed calls the wrapped function.
func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.Fn(ctx, text)
}

// Model returns the configured model name.
func (f Func) Model() string { return f.Model_ }

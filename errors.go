package hybridsearch

import (
	"errors"
	"fmt"

	"github.com/arrowhead-dev/hybridsearch/embedder"
	"github.com/arrowhead-dev/hybridsearch/hnsw"
)

var (
	// ErrNotFound is returned when an operation references an item id that does not exist.
	ErrNotFound = errors.New("hybridsearch: item not found")

	// ErrEmbedderNil is returned when an operation requires embedding text but no Embedder was configured.
	ErrEmbedderNil = embedder.ErrNil

	// ErrInvalidWeights is returned when ranker weights cannot be normalized (all zero or negative).
	ErrInvalidWeights = errors.New("hybridsearch: weights must include at least one positive component")

	// ErrSnapshotVersion is returned when a snapshot's version does not match what this build understands.
	ErrSnapshotVersion = errors.New("hybridsearch: unsupported snapshot version")

	// ErrVectorCountMismatch is returned when a snapshot's item count and vector count disagree.
	ErrVectorCountMismatch = errors.New("hybridsearch: snapshot item count does not match vector count")

	// ErrMalformedVector is returned when a decoded float32 vector payload
	// is not a whole number of 4-byte floats.
	ErrMalformedVector = errors.New("hybridsearch: snapshot vector payload is not a multiple of 4 bytes")
)

// ErrDimensionMismatch indicates a vector whose length does not match the engine's configured dimension.
//
// The original underlying error, if any, can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("hybridsearch: expected vector of dimension %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError normalizes errors surfacing from internal packages into
// the engine's own error types, so callers only ever need errors.Is/As
// against the hybridsearch package.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *hnsw.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	if errors.Is(err, hnsw.ErrIDExists) {
		return err
	}

	return err
}

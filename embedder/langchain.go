package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

// langChainAdapter wraps a langchaingo embeddings.Embedder so it satisfies
// the engine's Embedder contract, normalizing its output to unit length
// since langchaingo providers make no length guarantee.
type langChainAdapter struct {
	model string
	inner embeddings.Embedder
}

// FromLangChain adapts a langchaingo embeddings.Embedder, labeling its
// output with model for cache-key purposes.
func FromLangChain(model string, inner embeddings.Embedder) Embedder {
	return &langChainAdapter{model: model, inner: inner}
}

func (a *langChainAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := a.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedder: langchain EmbedQuery: %w", err)
	}

	return Normalize(vec), nil
}

func (a *langChainAdapter) Model() string { return a.model }

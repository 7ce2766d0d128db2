package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ProbeDimension embeds a short probe text and checks the vector width
// against the dimension the store was created with.
func ProbeDimension(ctx context.Context, embedder embeddings.Embedder, want int) error {
	vec, err := embedder.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		return fmt.Errorf("llm: probing embedding dimension: %w", err)
	}
	if len(vec) != want {
		return fmt.Errorf("llm: %w: model produces %d dimensions, store expects %d",
			ErrDimensionMismatch, len(vec), want)
	}
	return nil
}

package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lowrk/distill/internal/types"
)

// fakeEmbedder emits zero vectors of a fixed width.
type fakeEmbedder struct {
	dim int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dim), nil
}

func TestProbeDimension(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ProbeDimension(ctx, &fakeEmbedder{dim: 768}, 768))

	err := ProbeDimension(ctx, &fakeEmbedder{dim: 384}, 768)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "384")
	assert.Contains(t, err.Error(), "768")
}

func TestNewProviderOllama(t *testing.T) {
	p, err := NewProvider(types.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434"})
	assert.NoError(t, err)
	assert.NotNil(t, p.Model)
	assert.NotNil(t, p.Embedder)

	// Empty provider falls back to ollama.
	p, err = NewProvider(types.LLMConfig{})
	assert.NoError(t, err)
	assert.NotNil(t, p.Model)
}

func TestNewProviderOpenAI(t *testing.T) {
	p, err := NewProvider(types.LLMConfig{Provider: "openai", APIKey: "sk-test"})
	assert.NoError(t, err)
	assert.NotNil(t, p.Model)
	assert.NotNil(t, p.Embedder)
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(types.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}

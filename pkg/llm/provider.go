package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/lowrk/distill/internal/types"
)

// Provider bundles the chat model and the embedding model of one
// backing service.
type Provider struct {
	Model    llms.Model
	Embedder embeddings.Embedder
}

// NewProvider connects to the configured backend. "ollama" talks to a
// local server; "openai" covers hosted APIs speaking that protocol.
func NewProvider(config types.LLMConfig) (*Provider, error) {
	switch config.Provider {
	case "", "ollama":
		return newOllamaProvider(config)
	case "openai":
		return newOpenAIProvider(config)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", config.Provider)
	}
}

func newOllamaProvider(config types.LLMConfig) (*Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "llama3"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "nomic-embed-text"
	}

	chat, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: initializing ollama chat model: %w", err)
	}

	// Chat and embedding run different models, so each needs its own
	// client.
	embedClient, err := ollama.New(
		ollama.WithModel(config.EmbeddingModel),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: initializing ollama embedding model: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(embedClient)
	if err != nil {
		return nil, fmt.Errorf("llm: building embedder: %w", err)
	}

	return &Provider{Model: chat, Embedder: embedder}, nil
}

func newOpenAIProvider(config types.LLMConfig) (*Provider, error) {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-3-small"
	}

	opts := []openai.Option{
		openai.WithModel(config.Model),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}
	if config.APIKey != "" {
		opts = append(opts, openai.WithToken(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: initializing openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("llm: building embedder: %w", err)
	}

	return &Provider{Model: client, Embedder: embedder}, nil
}

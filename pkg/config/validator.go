package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	switch c.LLM.Provider {
	case "ollama", "openai":
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q (want ollama or openai)", c.LLM.Provider),
		})
	}

	if c.LLM.Provider == "ollama" && c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	}

	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "OPENAI_API_KEY is required for the openai provider",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.BaseURL != "" {
		if _, err := url.Parse(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	// Validate Store config
	switch c.Store.Backend {
	case "pgvector", "qdrant":
	default:
		errors = append(errors, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("unknown backend %q (want pgvector or qdrant)", c.Store.Backend),
		})
	}

	if c.Store.URL == "" {
		switch c.Store.Backend {
		case "pgvector":
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "connection string is required (set DATABASE_URL)",
			})
		case "qdrant":
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "Qdrant URL is required (set QDRANT_URL)",
			})
		}
	} else if _, err := url.Parse(c.Store.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "store.url",
			Message: "invalid store URL",
		})
	}

	if c.Store.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Store.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Store.SearchLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.search_limit",
			Message: "search_limit must be positive",
		})
	}

	// Validate Splitter config
	if c.Splitter.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "splitter.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "splitter.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate Crawl config
	if c.Crawl.MaxDepth < 1 {
		errors = append(errors, ValidationError{
			Field:   "crawl.max_depth",
			Message: "max_depth must be positive",
		})
	}

	if c.Crawl.MaxPages < 1 {
		errors = append(errors, ValidationError{
			Field:   "crawl.max_pages",
			Message: "max_pages must be positive",
		})
	}

	if c.Crawl.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "crawl.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate extensions format
	for _, ext := range c.Crawl.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") && ext != "" && ext != "/" {
			errors = append(errors, ValidationError{
				Field:   "crawl.allowed_extensions",
				Message: fmt.Sprintf("invalid extension format: %s", ext),
			})
		}
	}

	if c.Catalog.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "catalog.path",
			Message: "catalog path is required",
		})
	}

	return errors
}

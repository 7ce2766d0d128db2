package types

import (
	"context"
	"time"

	"github.com/lowrk/distill/internal/models"
)

// Core interfaces
type Loader interface {
	Kind() models.SourceKind
	Load(ctx context.Context, location string) ([]models.Document, error)
}

type Catalog interface {
	Record(ctx context.Context, src models.Source) error
	Lookup(ctx context.Context, location string) (models.Source, error)
	List(ctx context.Context) ([]models.Source, error)
	Delete(ctx context.Context, location string) error
	Clear(ctx context.Context) error
	Close() error
}

type Splitter interface {
	Split(doc models.Document) ([]models.Chunk, error)
}

type LLMConfig struct {
	Provider        string
	BaseURL         string
	APIKey          string
	Model           string
	EmbeddingModel  string
	MaxTokens       int
	Temperature     float64
	SystemTemplate  string
	ContextTemplate string
}

type StoreConfig struct {
	Backend     string
	URL         string
	APIKey      string
	Collection  string
	VectorDim   int
	BatchSize   int
	SearchLimit int
}

type SplitterConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	Separators     []string
	MinChunkLength int
}

type CrawlConfig struct {
	MaxDepth          int
	MaxPages          int
	RateLimit         float64
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
}

type CatalogConfig struct {
	Path string
}

type UIConfig struct {
	Streaming bool
}

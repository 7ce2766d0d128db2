package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lowrk/distill/internal/types"
	"github.com/lowrk/distill/pkg/config"
	"github.com/lowrk/distill/pkg/llm"
	"github.com/lowrk/distill/pkg/loader"
	"github.com/lowrk/distill/pkg/processor"
	"github.com/lowrk/distill/pkg/rag"
	"github.com/lowrk/distill/pkg/store"
)

var (
	cfg *config.Config
	log = logrus.New()

	flagConfig     string
	flagVerbose    bool
	flagStore      string
	flagCollection string
	flagTopK       int
	flagProvider   string
	flagModel      string
	flagEmbedModel string
	flagStream     bool
)

var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Ingest documents and answer questions grounded in them",
	Long: `rag maintains one vector collection: ingest fills it from PDFs, web
pages, Whisper transcripts and plain text; ask and chat answer against
it through a local (ollama) or hosted (openai) model.

Configuration comes from distill.yaml (or --config), the environment
(OLLAMA_BASE_URL, OPENAI_API_KEY, DATABASE_URL, QDRANT_URL) and flags,
in rising precedence.`,
	PersistentPreRunE: loadRagConfig,
}

func init() {
	flags := ragCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Path to the config file")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")
	flags.StringVar(&flagStore, "store", "", "Vector store backend: pgvector or qdrant")
	flags.StringVar(&flagCollection, "collection", "", "Vector collection name")
	flags.IntVar(&flagTopK, "top-k", 0, "How many chunks retrieval feeds the model")
	flags.StringVar(&flagProvider, "provider", "", "Model provider: ollama or openai")
	flags.StringVar(&flagModel, "model", "", "Chat model name")
	flags.StringVar(&flagEmbedModel, "embedding-model", "", "Embedding model name")
	flags.BoolVar(&flagStream, "stream", false, "Stream answers as they are generated")
	rootCmd.AddCommand(ragCmd)
}

func loadRagConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(flagConfig)
	if err != nil {
		return err
	}

	flags := ragCmd.PersistentFlags()
	if flags.Changed("provider") {
		if flagProvider != loaded.LLM.Provider {
			// Model names and the base URL defaulted for the previous
			// provider must not leak into the new one.
			if !flags.Changed("model") {
				loaded.LLM.Model = ""
			}
			if !flags.Changed("embedding-model") {
				loaded.LLM.EmbeddingModel = ""
			}
			if flagProvider == "openai" && loaded.LLM.BaseURL == "http://localhost:11434" {
				loaded.LLM.BaseURL = ""
			}
			if flagProvider == "ollama" && loaded.LLM.BaseURL == "" {
				loaded.LLM.BaseURL = "http://localhost:11434"
			}
		}
		loaded.LLM.Provider = flagProvider
	}
	if flags.Changed("model") {
		loaded.LLM.Model = flagModel
	}
	if flags.Changed("embedding-model") {
		loaded.LLM.EmbeddingModel = flagEmbedModel
	}
	if flags.Changed("store") {
		if flagStore != loaded.Store.Backend {
			// The store URL belongs to the previous backend.
			loaded.Store.URL = ""
			switch flagStore {
			case "qdrant":
				loaded.Store.URL = os.Getenv("QDRANT_URL")
			case "pgvector":
				loaded.Store.URL = os.Getenv("DATABASE_URL")
			}
		}
		loaded.Store.Backend = flagStore
	}
	if flags.Changed("collection") {
		loaded.Store.Collection = flagCollection
	}
	if flags.Changed("top-k") {
		loaded.Store.SearchLimit = flagTopK
	}
	if flags.Changed("stream") {
		loaded.UI.Streaming = flagStream
	}

	if errs := loaded.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return fmt.Errorf("invalid configuration: %w", errors.Join(joined...))
	}

	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	cfg = loaded
	return nil
}

// buildPipeline assembles the full pipeline from the loaded config. The
// returned cleanup closes the store pool and the catalog.
func buildPipeline(ctx context.Context, onEvent func(rag.Event)) (*rag.Pipeline, func(), error) {
	llmSettings := types.LLMConfig{
		Provider:       cfg.LLM.Provider,
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
	}

	provider, err := llm.NewProvider(llmSettings)
	if err != nil {
		return nil, nil, err
	}

	chat, err := llm.NewChatEngine(provider.Model, llmSettings)
	if err != nil {
		return nil, nil, err
	}

	vectorStore, maint, err := store.Open(ctx, types.StoreConfig{
		Backend:     cfg.Store.Backend,
		URL:         cfg.Store.URL,
		APIKey:      cfg.Store.APIKey,
		Collection:  cfg.Store.Collection,
		VectorDim:   cfg.Store.VectorDim,
		BatchSize:   cfg.Store.BatchSize,
		SearchLimit: cfg.Store.SearchLimit,
	}, provider.Embedder, log)
	if err != nil {
		return nil, nil, err
	}

	catalog, err := store.OpenCatalog(cfg.Catalog.Path)
	if err != nil {
		maint.Close()
		return nil, nil, err
	}
	cleanup := func() {
		catalog.Close()
		maint.Close()
	}

	proc, err := processor.NewWithConfig(types.SplitterConfig{
		ChunkSize:    cfg.Splitter.ChunkSize,
		ChunkOverlap: cfg.Splitter.ChunkOverlap,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	registry := loader.NewRegistry(types.CrawlConfig{
		MaxDepth:          cfg.Crawl.MaxDepth,
		MaxPages:          cfg.Crawl.MaxPages,
		RateLimit:         cfg.Crawl.RateLimit,
		IgnorePatterns:    cfg.Crawl.IgnorePatterns,
		AllowedExtensions: cfg.Crawl.AllowedExtensions,
	}, log)

	pipeline, err := rag.New(rag.Config{
		TopK:      cfg.Store.SearchLimit,
		BatchSize: cfg.Store.BatchSize,
		VectorDim: cfg.Store.VectorDim,
		Force:     ingestForce,
	}, rag.Deps{
		Resolver:   registry,
		Splitter:   proc,
		Model:      provider.Model,
		Embedder:   provider.Embedder,
		Chat:       chat,
		Store:      vectorStore,
		Maintainer: maint,
		Catalog:    catalog,
		Logger:     log,
		OnEvent:    onEvent,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return pipeline, cleanup, nil
}

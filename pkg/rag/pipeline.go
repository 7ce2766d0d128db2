// Package rag wires document loaders, the splitter, the vector store
// and the language model into one pipeline: ingest sources, then answer
// questions grounded in what was ingested.
package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/lowrk/distill/internal/models"
	"github.com/lowrk/distill/internal/types"
	"github.com/lowrk/distill/pkg/llm"
	"github.com/lowrk/distill/pkg/store"
)

// SourceResolver picks the loader responsible for a location.
type SourceResolver interface {
	ForLocation(location string) (types.Loader, models.SourceKind, error)
}

// Stage identifies which part of an ingest a progress event reports.
type Stage string

const (
	StageLoad  Stage = "load"
	StageSplit Stage = "split"
	StageStore Stage = "store"
)

// Event is one progress notification emitted while ingesting.
type Event struct {
	Stage    Stage
	Location string
	Count    int
	Total    int
}

// Config carries the pipeline-level knobs.
type Config struct {
	// TopK is how many chunks retrieval feeds the model per question.
	TopK int
	// BatchSize caps how many chunks go to the store in one call.
	BatchSize int
	// VectorDim is the embedding width the collection was created with.
	VectorDim int
	// Force re-ingests sources even when their content is unchanged.
	Force bool
}

// Deps are the collaborators a Pipeline orchestrates. All of them are
// required except OnEvent and Logger.
type Deps struct {
	Resolver   SourceResolver
	Splitter   types.Splitter
	Model      llms.Model
	Embedder   embeddings.Embedder
	Chat       *llm.ChatEngine
	Store      vectorstores.VectorStore
	Maintainer store.Maintainer
	Catalog    types.Catalog
	Logger     *logrus.Logger
	OnEvent    func(Event)
}

// Pipeline owns one document collection end to end.
type Pipeline struct {
	config   Config
	resolver SourceResolver
	splitter types.Splitter
	model    llms.Model
	embedder embeddings.Embedder
	chat     *llm.ChatEngine
	store    vectorstores.VectorStore
	maint    store.Maintainer
	catalog  types.Catalog
	log      *logrus.Logger
	onEvent  func(Event)
}

func New(config Config, deps Deps) (*Pipeline, error) {
	switch {
	case deps.Resolver == nil:
		return nil, errors.New("rag: pipeline needs a source resolver")
	case deps.Splitter == nil:
		return nil, errors.New("rag: pipeline needs a splitter")
	case deps.Model == nil:
		return nil, errors.New("rag: pipeline needs a model")
	case deps.Embedder == nil:
		return nil, errors.New("rag: pipeline needs an embedder")
	case deps.Chat == nil:
		return nil, errors.New("rag: pipeline needs a chat engine")
	case deps.Store == nil:
		return nil, errors.New("rag: pipeline needs a vector store")
	case deps.Maintainer == nil:
		return nil, errors.New("rag: pipeline needs a store maintainer")
	case deps.Catalog == nil:
		return nil, errors.New("rag: pipeline needs a catalog")
	}

	if config.TopK < 1 {
		config.TopK = 4
	}
	if config.BatchSize < 1 {
		config.BatchSize = 64
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}

	return &Pipeline{
		config:   config,
		resolver: deps.Resolver,
		splitter: deps.Splitter,
		model:    deps.Model,
		embedder: deps.Embedder,
		chat:     deps.Chat,
		store:    deps.Store,
		maint:    deps.Maintainer,
		catalog:  deps.Catalog,
		log:      deps.Logger,
		onEvent:  deps.OnEvent,
	}, nil
}

func (p *Pipeline) emit(e Event) {
	if p.onEvent != nil {
		p.onEvent(e)
	}
}

// Verify checks that the embedding model and the stored vectors agree
// on dimensions, so a misconfigured model surfaces before any content
// is embedded or compared.
func (p *Pipeline) Verify(ctx context.Context) error {
	if p.config.VectorDim > 0 {
		if err := llm.ProbeDimension(ctx, p.embedder, p.config.VectorDim); err != nil {
			return err
		}
	}

	dim, err := p.maint.Dimension(ctx)
	if errors.Is(err, store.ErrEmptyCollection) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rag: checking stored dimension: %w", err)
	}
	if p.config.VectorDim > 0 && dim != p.config.VectorDim {
		return fmt.Errorf("rag: %w: collection holds %d-dimensional vectors, config expects %d",
			llm.ErrDimensionMismatch, dim, p.config.VectorDim)
	}
	return nil
}

// Sources lists everything the catalog has recorded.
func (p *Pipeline) Sources(ctx context.Context) ([]models.Source, error) {
	return p.catalog.List(ctx)
}

// Reset wipes the vector collection and the catalog.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.maint.Reset(ctx); err != nil {
		return err
	}
	if err := p.catalog.Clear(ctx); err != nil {
		return fmt.Errorf("rag: clearing catalog: %w", err)
	}
	p.log.Info("collection and catalog reset")
	return nil
}

// Status describes the vector backend and what it currently holds.
type Status struct {
	Vectors   int
	Dimension int // zero until something is stored
	Sources   int
}

// Status pings the backend and reports collection statistics.
func (p *Pipeline) Status(ctx context.Context) (*Status, error) {
	if err := p.maint.Ping(ctx); err != nil {
		return nil, fmt.Errorf("rag: store unreachable: %w", err)
	}

	st := &Status{}
	count, err := p.maint.Count(ctx)
	if err != nil {
		return nil, err
	}
	st.Vectors = count

	dim, err := p.maint.Dimension(ctx)
	if err != nil && !errors.Is(err, store.ErrEmptyCollection) {
		return nil, err
	}
	st.Dimension = dim

	sources, err := p.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	st.Sources = len(sources)
	return st, nil
}

// collectionEmpty reports whether retrieval has anything to work with.
// Backend hiccups count as non-empty so a flaky count cannot suppress
// retrieval.
func (p *Pipeline) collectionEmpty(ctx context.Context) bool {
	count, err := p.maint.Count(ctx)
	if err != nil {
		p.log.WithError(err).Debug("could not count stored vectors")
		return false
	}
	return count == 0
}

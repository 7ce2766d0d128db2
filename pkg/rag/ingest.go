package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/schema"

	"github.com/lowrk/distill/internal/models"
	"github.com/lowrk/distill/pkg/store"
)

// ErrNoChunks means a source loaded fine but nothing survived splitting.
var ErrNoChunks = errors.New("rag: source produced no chunks")

// SourceResult describes what Ingest did with one location.
type SourceResult struct {
	Location  string
	Kind      models.SourceKind
	Title     string
	Documents int
	Chunks    int
	Skipped   bool
	Err       error
}

// Report sums up one ingest run.
type Report struct {
	Results []SourceResult
	Stored  int
	Skipped int
}

// Failed counts the sources that errored.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Ingest loads each location, splits it into chunks and stores their
// embeddings. Sources whose content is unchanged since the last run are
// skipped unless the pipeline was configured with Force. One bad source
// does not abort the rest; the error is non-nil only when every source
// failed.
func (p *Pipeline) Ingest(ctx context.Context, locations ...string) (*Report, error) {
	if len(locations) == 0 {
		return nil, errors.New("rag: no sources given")
	}

	report := &Report{}
	var failures []error
	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := p.ingestOne(ctx, location)
		report.Results = append(report.Results, result)

		switch {
		case result.Err != nil:
			p.log.WithError(result.Err).WithField("source", location).Error("ingest failed")
			failures = append(failures, fmt.Errorf("%s: %w", location, result.Err))
		case result.Skipped:
			report.Skipped++
		default:
			report.Stored += result.Chunks
		}
	}

	if len(failures) == len(locations) {
		return report, fmt.Errorf("rag: every source failed: %w", errors.Join(failures...))
	}
	return report, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, location string) SourceResult {
	result := SourceResult{Location: location}

	loader, kind, err := p.resolver.ForLocation(location)
	if err != nil {
		result.Err = err
		return result
	}
	result.Kind = kind

	started := time.Now()
	docs, err := loader.Load(ctx, location)
	if err != nil {
		result.Err = err
		return result
	}
	result.Documents = len(docs)
	result.Title = docs[0].Title
	p.emit(Event{Stage: StageLoad, Location: location, Count: len(docs), Total: len(docs)})

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	checksum := store.Checksum(contents...)

	previous, err := p.catalog.Lookup(ctx, location)
	if err != nil && !errors.Is(err, store.ErrSourceNotFound) {
		result.Err = err
		return result
	}
	known := err == nil

	if known && previous.Checksum == checksum && !p.config.Force {
		result.Skipped = true
		result.Chunks = previous.ChunkCount
		p.log.WithField("source", location).Info("content unchanged, skipping")
		return result
	}

	var chunks []models.Chunk
	for _, doc := range docs {
		split, err := p.splitter.Split(doc)
		if err != nil {
			result.Err = err
			return result
		}
		chunks = append(chunks, split...)
	}
	if len(chunks) == 0 {
		result.Err = fmt.Errorf("%w: %s", ErrNoChunks, location)
		return result
	}
	p.emit(Event{Stage: StageSplit, Location: location, Count: len(chunks), Total: len(chunks)})

	// A changed source replaces its old vectors instead of piling new
	// ones on top.
	if known {
		if err := p.maint.DeleteSource(ctx, location); err != nil {
			result.Err = fmt.Errorf("rag: dropping stale vectors for %s: %w", location, err)
			return result
		}
	}

	payload := toSchemaDocs(location, chunks)
	for i := 0; i < len(payload); i += p.config.BatchSize {
		end := min(i+p.config.BatchSize, len(payload))
		if _, err := p.store.AddDocuments(ctx, payload[i:end]); err != nil {
			result.Err = fmt.Errorf("rag: storing chunks for %s: %w", location, err)
			return result
		}
		p.emit(Event{Stage: StageStore, Location: location, Count: end, Total: len(payload)})
	}

	id := previous.ID
	if id == "" {
		id = uuid.NewString()
	}
	src := models.Source{
		ID:         id,
		Location:   location,
		Kind:       kind,
		Title:      result.Title,
		Checksum:   checksum,
		ChunkCount: len(chunks),
		IngestedAt: time.Now().UTC(),
	}
	if err := p.catalog.Record(ctx, src); err != nil {
		result.Err = fmt.Errorf("rag: recording source %s: %w", location, err)
		return result
	}

	result.Chunks = len(chunks)
	p.log.WithFields(logrus.Fields{
		"source":   location,
		"kind":     kind,
		"chunks":   len(chunks),
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("source ingested")
	return result
}

// toSchemaDocs converts chunks to store documents. Each one carries the
// ingest location under "origin" so a re-ingest can find and drop the
// previous generation.
func toSchemaDocs(origin string, chunks []models.Chunk) []schema.Document {
	docs := make([]schema.Document, len(chunks))
	for i, chunk := range chunks {
		metadata := make(map[string]any, len(chunk.Metadata)+2)
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		metadata["origin"] = origin
		metadata["chunk_id"] = chunk.ID
		docs[i] = schema.Document{PageContent: chunk.Content, Metadata: metadata}
	}
	return docs
}

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/pgvector"
	"github.com/tmc/langchaingo/vectorstores/qdrant"

	"github.com/lowrk/distill/internal/types"
)

var ErrEmptyCollection = errors.New("store: collection is empty")

// Maintainer covers the operations the langchaingo stores leave out:
// row counts, collection resets, stale-vector cleanup and connectivity
// checks.
type Maintainer interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	// Dimension reports the width of the vectors already stored. It
	// returns ErrEmptyCollection when nothing has been ingested yet.
	Dimension(ctx context.Context) (int, error)
	// DeleteSource drops every vector whose origin metadata matches the
	// given ingest location, so a changed source can be stored again
	// without stale chunks.
	DeleteSource(ctx context.Context, origin string) error
	Reset(ctx context.Context) error
	Close()
}

// Open connects the configured backend and returns the langchaingo
// store for ingest and retrieval plus a maintainer for everything
// else.
func Open(ctx context.Context, config types.StoreConfig, embedder embeddings.Embedder, log *logrus.Logger) (vectorstores.VectorStore, Maintainer, error) {
	if log == nil {
		log = logrus.New()
	}

	switch config.Backend {
	case "", "pgvector":
		return openPgvector(ctx, config, embedder, log)
	case "qdrant":
		return openQdrant(config, embedder, log)
	default:
		return nil, nil, fmt.Errorf("store: unknown backend %q", config.Backend)
	}
}

func openPgvector(ctx context.Context, config types.StoreConfig, embedder embeddings.Embedder, log *logrus.Logger) (vectorstores.VectorStore, Maintainer, error) {
	pool, err := pgxpool.New(ctx, config.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}

	s, err := pgvector.New(ctx,
		pgvector.WithConn(pool),
		pgvector.WithEmbedder(embedder),
		pgvector.WithCollectionName(config.Collection),
		pgvector.WithVectorDimensions(config.VectorDim),
	)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("store: initializing pgvector store: %w", err)
	}

	return s, &pgMaintainer{pool: pool, collection: config.Collection, log: log}, nil
}

func openQdrant(config types.StoreConfig, embedder embeddings.Embedder, log *logrus.Logger) (vectorstores.VectorStore, Maintainer, error) {
	base, err := url.Parse(config.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("store: parsing qdrant url: %w", err)
	}

	opts := []qdrant.Option{
		qdrant.WithURL(*base),
		qdrant.WithCollectionName(config.Collection),
		qdrant.WithEmbedder(embedder),
	}
	if config.APIKey != "" {
		opts = append(opts, qdrant.WithAPIKey(config.APIKey))
	}

	s, err := qdrant.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("store: initializing qdrant store: %w", err)
	}

	return s, &qdrantMaintainer{
		base:       *base,
		apiKey:     config.APIKey,
		collection: config.Collection,
		client:     http.DefaultClient,
		log:        log,
	}, nil
}

// pgMaintainer works directly against the tables the langchaingo
// pgvector store creates.
type pgMaintainer struct {
	pool       *pgxpool.Pool
	collection string
	log        *logrus.Logger
}

func (m *pgMaintainer) Ping(ctx context.Context) error {
	return m.pool.Ping(ctx)
}

func (m *pgMaintainer) Count(ctx context.Context) (int, error) {
	var count int
	err := m.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM langchain_pg_embedding e
		JOIN langchain_pg_collection c ON e.collection_id = c.uuid
		WHERE c.name = $1`, m.collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: counting embeddings: %w", err)
	}
	return count, nil
}

func (m *pgMaintainer) Dimension(ctx context.Context) (int, error) {
	// The embedding column has no declared width, so read one vector
	// back and measure it.
	var raw string
	err := m.pool.QueryRow(ctx, `
		SELECT e.embedding::text
		FROM langchain_pg_embedding e
		JOIN langchain_pg_collection c ON e.collection_id = c.uuid
		WHERE c.name = $1
		LIMIT 1`, m.collection).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrEmptyCollection
	}
	if err != nil {
		return 0, fmt.Errorf("store: reading stored embedding: %w", err)
	}

	var vec pgv.Vector
	if err := vec.Parse(raw); err != nil {
		return 0, fmt.Errorf("store: parsing stored embedding: %w", err)
	}
	return len(vec.Slice()), nil
}

func (m *pgMaintainer) DeleteSource(ctx context.Context, origin string) error {
	tag, err := m.pool.Exec(ctx, `
		DELETE FROM langchain_pg_embedding
		WHERE collection_id IN (SELECT uuid FROM langchain_pg_collection WHERE name = $1)
		AND cmetadata->>'origin' = $2`, m.collection, origin)
	if err != nil {
		return fmt.Errorf("store: deleting vectors for %s: %w", origin, err)
	}
	m.log.WithFields(logrus.Fields{
		"origin":  origin,
		"deleted": tag.RowsAffected(),
	}).Debug("dropped stale vectors")
	return nil
}

func (m *pgMaintainer) Reset(ctx context.Context) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: beginning reset: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM langchain_pg_embedding
		WHERE collection_id IN (SELECT uuid FROM langchain_pg_collection WHERE name = $1)`,
		m.collection); err != nil {
		return fmt.Errorf("store: deleting embeddings: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM langchain_pg_collection WHERE name = $1`, m.collection); err != nil {
		return fmt.Errorf("store: deleting collection: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: committing reset: %w", err)
	}

	m.log.WithField("collection", m.collection).Info("vector collection reset")
	return nil
}

func (m *pgMaintainer) Close() {
	m.pool.Close()
}

// qdrantMaintainer speaks the same REST API the langchaingo qdrant
// store uses.
type qdrantMaintainer struct {
	base       url.URL
	apiKey     string
	collection string
	client     *http.Client
	log        *logrus.Logger
}

func (m *qdrantMaintainer) Ping(ctx context.Context) error {
	resp, err := m.do(ctx, http.MethodGet, m.base.JoinPath("healthz").String(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("store: qdrant health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (m *qdrantMaintainer) Count(ctx context.Context) (int, error) {
	target := m.base.JoinPath("collections", m.collection, "points", "count").String()
	resp, err := m.do(ctx, http.MethodPost, target, map[string]any{"exact": true})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// A missing collection simply has nothing in it yet.
	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("store: qdrant count returned status %d", resp.StatusCode)
	}

	var payload struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("store: decoding qdrant count: %w", err)
	}
	return payload.Result.Count, nil
}

func (m *qdrantMaintainer) Dimension(ctx context.Context) (int, error) {
	target := m.base.JoinPath("collections", m.collection).String()
	resp, err := m.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrEmptyCollection
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("store: qdrant collection info returned status %d", resp.StatusCode)
	}

	var payload struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("store: decoding qdrant collection info: %w", err)
	}
	if payload.Result.Config.Params.Vectors.Size == 0 {
		return 0, ErrEmptyCollection
	}
	return payload.Result.Config.Params.Vectors.Size, nil
}

func (m *qdrantMaintainer) DeleteSource(ctx context.Context, origin string) error {
	target := m.base.JoinPath("collections", m.collection, "points", "delete").String()
	resp, err := m.do(ctx, http.MethodPost, target, map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "origin", "match": map[string]any{"value": origin}},
			},
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Nothing stored from this source yet is fine.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("store: qdrant delete returned status %d", resp.StatusCode)
	}

	m.log.WithField("origin", origin).Debug("dropped stale vectors")
	return nil
}

func (m *qdrantMaintainer) Reset(ctx context.Context) error {
	target := m.base.JoinPath("collections", m.collection).String()
	resp, err := m.do(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("store: qdrant reset returned status %d", resp.StatusCode)
	}

	m.log.WithField("collection", m.collection).Info("vector collection reset")
	return nil
}

func (m *qdrantMaintainer) Close() {}

func (m *qdrantMaintainer) do(ctx context.Context, method, target string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("store: encoding qdrant request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("store: building qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if m.apiKey != "" {
		req.Header.Set("api-key", m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: calling qdrant: %w", err)
	}
	return resp, nil
}

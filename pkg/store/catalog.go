package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lowrk/distill/internal/models"
)

var ErrSourceNotFound = errors.New("store: source not found")

const catalogSchema = `
CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	location TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL,
	title TEXT,
	checksum TEXT NOT NULL,
	chunk_count INTEGER NOT NULL,
	ingested_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sources_kind_idx ON sources(kind);
`

// Catalog records what has been ingested in a local sqlite file so the
// pipeline can list sources and skip unchanged ones.
type Catalog struct {
	db *sql.DB
}

func OpenCatalog(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening catalog: %w", err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Record upserts one source keyed by its location.
func (c *Catalog) Record(ctx context.Context, src models.Source) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO sources (id, location, kind, title, checksum, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			checksum = excluded.checksum,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at`,
		src.ID, src.Location, string(src.Kind), src.Title, src.Checksum,
		src.ChunkCount, src.IngestedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: recording source %s: %w", src.Location, err)
	}
	return nil
}

func (c *Catalog) Lookup(ctx context.Context, location string) (models.Source, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, location, kind, title, checksum, chunk_count, ingested_at
		FROM sources WHERE location = ?`, location)

	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, location)
	}
	if err != nil {
		return models.Source{}, fmt.Errorf("store: looking up source %s: %w", location, err)
	}
	return src, nil
}

func (c *Catalog) List(ctx context.Context) ([]models.Source, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, location, kind, title, checksum, chunk_count, ingested_at
		FROM sources ORDER BY ingested_at DESC, location`)
	if err != nil {
		return nil, fmt.Errorf("store: listing sources: %w", err)
	}
	defer rows.Close()

	var sources []models.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func (c *Catalog) Delete(ctx context.Context, location string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM sources WHERE location = ?`, location)
	if err != nil {
		return fmt.Errorf("store: deleting source %s: %w", location, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: deleting source %s: %w", location, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, location)
	}
	return nil
}

func (c *Catalog) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM sources`); err != nil {
		return fmt.Errorf("store: clearing catalog: %w", err)
	}
	return nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (models.Source, error) {
	var src models.Source
	var kind, ingestedAt string
	if err := row.Scan(&src.ID, &src.Location, &kind, &src.Title,
		&src.Checksum, &src.ChunkCount, &ingestedAt); err != nil {
		return models.Source{}, err
	}

	src.Kind = models.SourceKind(kind)
	parsed, err := time.Parse(time.RFC3339Nano, ingestedAt)
	if err != nil {
		return models.Source{}, fmt.Errorf("parsing ingested_at: %w", err)
	}
	src.IngestedAt = parsed
	return src, nil
}

// Checksum fingerprints source content so unchanged sources can be
// skipped on re-ingest.
func Checksum(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowrk/distill/internal/models"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testSource(location string, at time.Time) models.Source {
	return models.Source{
		ID:         "id-" + location,
		Location:   location,
		Kind:       models.KindText,
		Title:      "Title " + location,
		Checksum:   Checksum(location),
		ChunkCount: 3,
		IngestedAt: at,
	}
}

func TestCatalogRecordAndLookup(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	src := testSource("notes/a.md", now)
	require.NoError(t, c.Record(ctx, src))

	got, err := c.Lookup(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, src.ID, got.ID)
	assert.Equal(t, models.KindText, got.Kind)
	assert.Equal(t, src.Checksum, got.Checksum)
	assert.Equal(t, 3, got.ChunkCount)
	assert.True(t, got.IngestedAt.Equal(now))
}

func TestCatalogLookupMissing(t *testing.T) {
	c := openTestCatalog(t)

	_, err := c.Lookup(context.Background(), "never/ingested.md")
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestCatalogRecordUpsertsByLocation(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	first := testSource("doc.pdf", time.Now().UTC())
	first.Kind = models.KindPDF
	require.NoError(t, c.Record(ctx, first))

	second := first
	second.Checksum = Checksum("changed")
	second.ChunkCount = 9
	require.NoError(t, c.Record(ctx, second))

	got, err := c.Lookup(ctx, "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, second.Checksum, got.Checksum)
	assert.Equal(t, 9, got.ChunkCount)

	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "re-recording the same location must not duplicate it")
}

func TestCatalogListOrdersByRecency(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Record(ctx, testSource("old.md", base)))
	require.NoError(t, c.Record(ctx, testSource("new.md", base.Add(time.Hour))))

	all, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new.md", all[0].Location)
	assert.Equal(t, "old.md", all[1].Location)
}

func TestCatalogDelete(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, testSource("gone.md", time.Now().UTC())))
	require.NoError(t, c.Delete(ctx, "gone.md"))

	_, err := c.Lookup(ctx, "gone.md")
	assert.ErrorIs(t, err, ErrSourceNotFound)

	assert.ErrorIs(t, c.Delete(ctx, "gone.md"), ErrSourceNotFound)
}

func TestCatalogClear(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, testSource("a.md", time.Now().UTC())))
	require.NoError(t, c.Record(ctx, testSource("b.md", time.Now().UTC())))
	require.NoError(t, c.Clear(ctx))

	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, Checksum("a", "b"), Checksum("a", "b"))
	assert.NotEqual(t, Checksum("a", "b"), Checksum("ab"), "part boundaries must matter")
	assert.NotEqual(t, Checksum("a"), Checksum("b"))
	assert.Len(t, Checksum("x"), 64)
}

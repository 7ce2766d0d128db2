package processor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowrk/distill/internal/models"
	"github.com/lowrk/distill/internal/types"
)

func testDocument(id, content string) models.Document {
	return models.Document{
		ID:      id,
		Source:  "notes/" + id + ".md",
		Kind:    models.KindText,
		Title:   "Doc " + id,
		Content: content,
	}
}

func TestSplitShortDocument(t *testing.T) {
	p, err := NewWithConfig(types.SplitterConfig{ChunkSize: 500, ChunkOverlap: 50})
	require.NoError(t, err)

	doc := testDocument("d1", "Singular values measure how much each direction matters.")
	chunks, err := p.Split(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, doc.Content, chunk.Content)
	assert.Equal(t, "d1", chunk.DocumentID)
	assert.Equal(t, 0, chunk.Ordinal)
	assert.NotEmpty(t, chunk.ID)
	assert.Equal(t, "notes/d1.md", chunk.Metadata["source"])
	assert.Equal(t, "Doc d1", chunk.Metadata["title"])
	assert.Equal(t, "text", chunk.Metadata["kind"])
}

func TestSplitLongDocument(t *testing.T) {
	p, err := NewWithConfig(types.SplitterConfig{
		ChunkSize:      200,
		ChunkOverlap:   40,
		MinChunkLength: 10,
	})
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString("Opening line about approximation quality.\n\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %d talks about singular values and truncation. ", i)
	}
	b.WriteString("\n\nClosing line about reconstruction error.")

	chunks, err := p.Split(testDocument("d2", b.String()))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1, "long text must split into several chunks")

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal, "ordinals must be dense and ordered")
		assert.LessOrEqual(t, len(chunk.Content), 200)
	}
	assert.Contains(t, chunks[0].Content, "Opening line")
	assert.Contains(t, chunks[len(chunks)-1].Content, "Closing line")
}

func TestSplitFiltersTinyFragments(t *testing.T) {
	p, err := NewWithConfig(types.SplitterConfig{
		ChunkSize:      100,
		ChunkOverlap:   10,
		MinChunkLength: 80,
	})
	require.NoError(t, err)

	chunks, err := p.Split(testDocument("d3", "one.\n\ntwo."))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcessMultipleDocuments(t *testing.T) {
	p, err := NewWithConfig(types.SplitterConfig{ChunkSize: 500, ChunkOverlap: 50, MinChunkLength: 5})
	require.NoError(t, err)

	docs := []models.Document{
		testDocument("a", "First document body with enough words."),
		testDocument("b", "Second document body with enough words."),
	}

	chunks, err := p.Process(docs)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "a", chunks[0].DocumentID)
	assert.Equal(t, "b", chunks[1].DocumentID)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 0, chunks[1].Ordinal, "ordinals restart per document")
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
}

func TestNewWithConfigRejectsBadOverlap(t *testing.T) {
	_, err := NewWithConfig(types.SplitterConfig{ChunkSize: 100, ChunkOverlap: 100})
	assert.Error(t, err)

	_, err = NewWithConfig(types.SplitterConfig{ChunkSize: 100, ChunkOverlap: 150})
	assert.Error(t, err)
}

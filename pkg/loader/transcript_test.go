package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowrk/distill/internal/models"
)

func writeTranscript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestTranscriptLoad(t *testing.T) {
	path := writeTranscript(t, "lecture.json", `{
		"text": " Welcome back. Today we cover rank.",
		"language": "en",
		"segments": [
			{"id": 0, "start": 0.0, "end": 4.2, "text": " Welcome back."},
			{"id": 1, "start": 4.2, "end": 9.8, "text": " Today we cover rank."}
		]
	}`)

	docs, err := NewTranscript(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, models.KindTranscript, doc.Kind)
	assert.Equal(t, "lecture", doc.Title)
	assert.Equal(t, "Welcome back. Today we cover rank.", doc.Content)
	assert.Equal(t, "en", doc.Metadata["language"])
	assert.Equal(t, 2, doc.Metadata["segments"])
	assert.Equal(t, 9.8, doc.Metadata["duration"])
}

func TestTranscriptRejectsMissingSegments(t *testing.T) {
	path := writeTranscript(t, "bad.json", `{"text": "no segments here"}`)

	_, err := NewTranscript(nil).Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTranscript)
	assert.Contains(t, err.Error(), "segments")
}

func TestTranscriptRejectsWrongTypes(t *testing.T) {
	path := writeTranscript(t, "bad-types.json", `{
		"segments": [{"start": "zero", "end": 1.0, "text": "hi"}]
	}`)

	_, err := NewTranscript(nil).Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrInvalidTranscript)
}

func TestTranscriptRejectsMalformedJSON(t *testing.T) {
	path := writeTranscript(t, "broken.json", `{"segments": [`)

	_, err := NewTranscript(nil).Load(context.Background(), path)
	assert.Error(t, err)
}

func TestTranscriptRejectsBlankSegments(t *testing.T) {
	path := writeTranscript(t, "blank.json", `{
		"segments": [{"start": 0, "end": 1, "text": "   "}]
	}`)

	_, err := NewTranscript(nil).Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoContent)
}

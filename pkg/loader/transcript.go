package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/lowrk/distill/internal/models"
)

// transcriptSchema matches the JSON layout Whisper-style transcribers
// emit: a segments array with start/end timestamps and text.
const transcriptSchema = `{
	"type": "object",
	"required": ["segments"],
	"properties": {
		"text": {"type": "string"},
		"language": {"type": "string"},
		"segments": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["start", "end", "text"],
				"properties": {
					"id": {"type": "integer"},
					"start": {"type": "number", "minimum": 0},
					"end": {"type": "number", "minimum": 0},
					"text": {"type": "string"}
				}
			}
		}
	}
}`

type transcriptFile struct {
	Text     string            `json:"text"`
	Language string            `json:"language"`
	Segments []transcriptEntry `json:"segments"`
}

type transcriptEntry struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript loads audio transcripts that were produced by an external
// speech-to-text run and saved as JSON.
type Transcript struct {
	log *logrus.Logger
}

func NewTranscript(log *logrus.Logger) *Transcript {
	return &Transcript{log: ensureLogger(log)}
}

func (t *Transcript) Kind() models.SourceKind { return models.KindTranscript }

func (t *Transcript) Load(ctx context.Context, location string) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("loader: reading transcript %s: %w", location, err)
	}

	if err := validateTranscript(raw); err != nil {
		return nil, fmt.Errorf("loader: %s: %w", location, err)
	}

	var tf transcriptFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("loader: decoding transcript %s: %w", location, err)
	}

	parts := make([]string, 0, len(tf.Segments))
	for _, seg := range tf.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	content := strings.Join(parts, " ")
	if content == "" {
		return nil, fmt.Errorf("loader: %w in %s", ErrNoContent, location)
	}

	title := strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
	return []models.Document{{
		ID:      uuid.NewString(),
		Source:  location,
		Kind:    models.KindTranscript,
		Title:   title,
		Content: content,
		Metadata: map[string]interface{}{
			"language": tf.Language,
			"segments": len(tf.Segments),
			"duration": tf.Segments[len(tf.Segments)-1].End,
		},
	}}, nil
}

func validateTranscript(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(transcriptSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("transcript is not valid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidTranscript, strings.Join(msgs, "; "))
	}
	return nil
}

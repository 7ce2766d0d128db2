package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lowrk/distill/internal/models"
)

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".rst":      true,
}

// Text loads plain text and markdown files. A directory loads every
// text file under it, one document per file.
type Text struct {
	log *logrus.Logger
}

func NewText(log *logrus.Logger) *Text {
	return &Text{log: ensureLogger(log)}
}

func (t *Text) Kind() models.SourceKind { return models.KindText }

func (t *Text) Load(ctx context.Context, location string) ([]models.Document, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	if info.IsDir() {
		return t.loadDir(ctx, location)
	}

	doc, err := t.loadFile(location)
	if err != nil {
		return nil, err
	}
	return []models.Document{doc}, nil
}

func (t *Text) loadDir(ctx context.Context, dir string) ([]models.Document, error) {
	var docs []models.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		doc, err := t.loadFile(path)
		if err != nil {
			// One unreadable file must not sink the directory.
			t.log.WithField("file", path).WithError(err).Warn("skipping text file")
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: walking %s: %w", dir, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("loader: %w under %s", ErrNoContent, dir)
	}
	return docs, nil
}

func (t *Text) loadFile(path string) (models.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("loader: reading %s: %w", path, err)
	}

	content := strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n"))
	if content == "" {
		return models.Document{}, fmt.Errorf("loader: %w in %s", ErrNoContent, path)
	}

	return models.Document{
		ID:      uuid.NewString(),
		Source:  path,
		Kind:    models.KindText,
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content: content,
		Metadata: map[string]interface{}{
			"bytes": len(raw),
		},
	}, nil
}

// Package loader turns external sources (web pages, PDFs, audio
// transcripts, plain text) into documents ready for splitting.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lowrk/distill/internal/models"
	"github.com/lowrk/distill/internal/types"
)

var (
	ErrUnsupportedSource = errors.New("unsupported source")
	ErrNoContent         = errors.New("no extractable text")
	ErrInvalidTranscript = errors.New("transcript does not match the expected schema")
)

// Detect classifies a source location by shape: URLs crawl the web,
// directories walk as text, file extensions pick the rest.
func Detect(location string) (models.SourceKind, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return models.KindWeb, nil
	}

	if info, err := os.Stat(location); err == nil && info.IsDir() {
		return models.KindText, nil
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".pdf":
		return models.KindPDF, nil
	case ".json":
		return models.KindTranscript, nil
	case ".txt", ".md", ".markdown", ".rst":
		return models.KindText, nil
	}
	return "", fmt.Errorf("loader: %w: %s", ErrUnsupportedSource, location)
}

// Registry holds one configured loader per source kind.
type Registry struct {
	loaders map[models.SourceKind]types.Loader
}

func NewRegistry(crawl types.CrawlConfig, log *logrus.Logger) *Registry {
	r := &Registry{loaders: make(map[models.SourceKind]types.Loader)}
	for _, l := range []types.Loader{
		NewWeb(crawl, log),
		NewPDF(log),
		NewTranscript(log),
		NewText(log),
	} {
		r.loaders[l.Kind()] = l
	}
	return r
}

// ForLocation detects the source kind and returns the loader for it.
func (r *Registry) ForLocation(location string) (types.Loader, models.SourceKind, error) {
	kind, err := Detect(location)
	if err != nil {
		return nil, "", err
	}
	l, ok := r.loaders[kind]
	if !ok {
		return nil, "", fmt.Errorf("loader: no loader registered for kind %s", kind)
	}
	return l, kind, nil
}

// collapseWhitespace joins all runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

func ensureLogger(log *logrus.Logger) *logrus.Logger {
	if log == nil {
		return logrus.New()
	}
	return log
}

package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/lowrk/distill/internal/models"
)

// PDF extracts the embedded text layer of a PDF file. Scanned image
// PDFs carry no text layer and load as ErrNoContent.
type PDF struct {
	log *logrus.Logger
}

func NewPDF(log *logrus.Logger) *PDF {
	return &PDF{log: ensureLogger(log)}
}

func (p *PDF) Kind() models.SourceKind { return models.KindPDF }

func (p *PDF) Load(ctx context.Context, location string) ([]models.Document, error) {
	f, reader, err := pdf.Open(location)
	if err != nil {
		return nil, fmt.Errorf("loader: opening pdf %s: %w", location, err)
	}
	defer f.Close()

	total := reader.NumPage()
	var pages []string
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.log.WithFields(logrus.Fields{"file": location, "page": i}).
				WithError(err).Warn("skipping unreadable pdf page")
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	content := strings.Join(pages, "\n\n")
	if content == "" {
		return nil, fmt.Errorf("loader: %w in %s", ErrNoContent, location)
	}

	title := strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
	return []models.Document{{
		ID:      uuid.NewString(),
		Source:  location,
		Kind:    models.KindPDF,
		Title:   title,
		Content: content,
		Metadata: map[string]interface{}{
			"pages": total,
		},
	}}, nil
}

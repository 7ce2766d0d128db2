package processor

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/lowrk/distill/internal/models"
	"github.com/lowrk/distill/internal/types"
)

// Processor cuts loaded documents into ordered chunks. The splitting
// itself is delegated to the recursive character splitter, which backs
// off through separators until pieces fit the chunk size.
type Processor struct {
	config   types.SplitterConfig
	splitter textsplitter.RecursiveCharacter
}

func NewWithConfig(config types.SplitterConfig) (*Processor, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 20
	}
	if config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("processor: chunk overlap %d must stay below chunk size %d",
			config.ChunkOverlap, config.ChunkSize)
	}

	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(config.ChunkSize),
		textsplitter.WithChunkOverlap(config.ChunkOverlap),
	}
	if len(config.Separators) > 0 {
		opts = append(opts, textsplitter.WithSeparators(config.Separators))
	}

	return &Processor{
		config:   config,
		splitter: textsplitter.NewRecursiveCharacter(opts...),
	}, nil
}

// Split cuts one document into chunks. Each chunk carries its origin
// in the metadata so retrieval can cite it later.
func (p *Processor) Split(doc models.Document) ([]models.Chunk, error) {
	pieces, err := p.splitter.SplitText(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("processor: splitting %s: %w", doc.Source, err)
	}

	chunks := make([]models.Chunk, 0, len(pieces))
	ordinal := 0
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		// Fragments below the minimum carry too little context to be
		// worth a vector.
		if len(piece) < p.config.MinChunkLength {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Ordinal:    ordinal,
			Content:    piece,
			Metadata: map[string]interface{}{
				"document_id": doc.ID,
				"source":      doc.Source,
				"kind":        string(doc.Kind),
				"title":       doc.Title,
				"ordinal":     ordinal,
			},
		})
		ordinal++
	}
	return chunks, nil
}

// Process splits every document and concatenates the results.
func (p *Processor) Process(docs []models.Document) ([]models.Chunk, error) {
	var all []models.Chunk
	for _, doc := range docs {
		chunks, err := p.Split(doc)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

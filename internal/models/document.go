package models

import "time"

// SourceKind identifies how a source location gets loaded.
type SourceKind string

const (
	KindPDF        SourceKind = "pdf"
	KindWeb        SourceKind = "web"
	KindTranscript SourceKind = "transcript"
	KindText       SourceKind = "text"
)

// Source is one ingestable input as the catalog tracks it.
type Source struct {
	ID         string
	Location   string
	Kind       SourceKind
	Title      string
	Checksum   string
	ChunkCount int
	IngestedAt time.Time
}

// Document is the loaded content of a source before splitting.
type Document struct {
	ID       string
	Source   string
	Kind     SourceKind
	Title    string
	Content  string
	Metadata map[string]interface{}
}

// Chunk is one retrievable piece of a document. Ordinal preserves the
// original order of chunks within their document.
type Chunk struct {
	ID         string
	DocumentID string
	Ordinal    int
	Content    string
	Metadata   map[string]interface{}
}

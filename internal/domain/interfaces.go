package domain

import "context"

// Document is one ingested unit of content, keyed by a stable identifier
// (the Markdown filename derived from the article slug).
type Document struct {
	ID      string
	Title   string
	URL     string
	Content string
}

// Chunk is a bounded, line-aligned slice of a document's text.
// Index is the dense zero-based ordinal assigned by the chunker.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
}

// Point is the atomic unit stored in the vector index.
type Point struct {
	ID     string
	Vector []float32
	Chunk  Chunk
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// ChangeStatus classifies a document against the last persisted hash record.
type ChangeStatus int

const (
	StatusAdded ChangeStatus = iota
	StatusUpdated
	StatusSkipped
)

func (s ChangeStatus) String() string {
	switch s {
	case StatusAdded:
		return "Added"
	case StatusUpdated:
		return "Updated"
	case StatusSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// Generator turns a prompt into generated text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// DocumentSource produces the documents of one ingestion cycle.
type DocumentSource interface {
	Documents(ctx context.Context) ([]Document, error)
}

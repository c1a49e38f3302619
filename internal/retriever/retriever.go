// Package retriever finds the stored chunks closest to a question.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"ragsync/internal/domain"
	"ragsync/internal/vectorstore"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// QueryEmbedder embeds one text with a task type.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text, taskType string) ([]float32, error)
}

// Retriever embeds questions and searches the vector store.
type Retriever struct {
	embedder QueryEmbedder
	store    vectorstore.Storage
	topK     int
	taskType string
}

// New creates a retriever. A non-positive topK uses DefaultTopK.
func New(embedder QueryEmbedder, store vectorstore.Storage, topK int, taskType string) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK, taskType: taskType}
}

// Retrieve returns the best matching chunks in store order. Embedding failures
// wrap domain.ErrEmbeddingFailed so callers can tell them apart from search errors.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	vec, err := r.embedder.EmbedOne(ctx, question, r.taskType)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	results, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// FormatContext renders results as source-tagged blocks separated by a blank line.
func FormatContext(results []domain.SearchResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("File: %s | Chunk: %d\n%s", r.Chunk.DocumentID, r.Chunk.Index, r.Chunk.Text)
	}
	return strings.Join(blocks, "\n\n")
}

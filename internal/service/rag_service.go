package service

import (
	"context"
	"fmt"

	"ragsync/internal/answer"
	"ragsync/internal/domain"
)

// Asker answers one question.
type Asker interface {
	Answer(ctx context.Context, question string) (answer.Answer, error)
}

// RAGService is the entry point used by the CLI and the chat UI: it ingests
// documents from a source and answers questions against the synchronised index.
type RAGService struct {
	source   domain.DocumentSource
	ingester *Ingester
	asker    Asker
}

// NewRAGService creates the service. source and ingester may be nil for query-only use.
func NewRAGService(source domain.DocumentSource, ingester *Ingester, asker Asker) *RAGService {
	return &RAGService{source: source, ingester: ingester, asker: asker}
}

// Ingest loads the source documents and runs one ingestion cycle.
func (s *RAGService) Ingest(ctx context.Context) (Summary, error) {
	if s.source == nil || s.ingester == nil {
		return Summary{}, fmt.Errorf("%w: ingestion is not configured", domain.ErrInvalidInput)
	}
	docs, err := s.source.Documents(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load documents: %w", err)
	}
	return s.ingester.Run(ctx, docs)
}

// Ask answers a question.
func (s *RAGService) Ask(ctx context.Context, question string) (answer.Answer, error) {
	return s.asker.Answer(ctx, question)
}

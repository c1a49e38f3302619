// Package indexer turns embedded chunks into points and writes them to the vector store.
package indexer

import (
	"context"
	"fmt"

	"ragsync/internal/domain"
	"ragsync/internal/logger"
	"ragsync/internal/vectorstore"
)

// DefaultBatchSize is the number of points sent per upsert request.
const DefaultBatchSize = 64

// Indexer writes chunk points of whole documents.
type Indexer struct {
	store     vectorstore.Storage
	batchSize int
}

// New creates an indexer. A non-positive batchSize uses DefaultBatchSize.
func New(store vectorstore.Storage, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{store: store, batchSize: batchSize}
}

// EnsureCollection creates the collection if it does not exist.
func (ix *Indexer) EnsureCollection(ctx context.Context) error {
	if err := ix.store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	return nil
}

// RecreateCollection drops and recreates the collection, losing every point.
func (ix *Indexer) RecreateCollection(ctx context.Context) error {
	if err := ix.store.DropCollection(ctx); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return ix.EnsureCollection(ctx)
}

// Points pairs chunks with their vectors. It does not check lengths.
func Points(chunks []domain.Chunk, vectors [][]float32) []domain.Point {
	points := make([]domain.Point, len(chunks))
	for i, c := range chunks {
		points[i] = domain.Point{
			ID:     vectorstore.PointID(c.DocumentID, c.Index),
			Vector: vectors[i],
			Chunk:  c,
		}
	}
	return points
}

// Index upserts the chunks of documentID and then deletes points left over from a
// longer previous version. It returns the number of points written.
func (ix *Indexer) Index(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrCountMismatch, len(chunks), len(vectors))
	}
	points := Points(chunks, vectors)
	for start := 0; start < len(points); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(points) {
			end = len(points)
		}
		if err := ix.store.Upsert(ctx, points[start:end]); err != nil {
			return start, fmt.Errorf("upsert points %d-%d: %w", start, end-1, err)
		}
		logger.Debug("[%s] upserted points %d-%d", documentID, start, end-1)
	}
	if err := ix.store.PruneDocument(ctx, documentID, len(chunks)); err != nil {
		return len(points), fmt.Errorf("prune stale points: %w", err)
	}
	return len(points), nil
}

// Package vectorstore defines the vector index port and the point id scheme shared by its adapters.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ragsync/internal/domain"
)

// Storage persists vectors of one collection and supports similarity search.
type Storage interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context) error
	// DropCollection removes the collection and all its points.
	DropCollection(ctx context.Context) error
	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, points []domain.Point) error
	// Search returns up to topK nearest points, best first.
	Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
	// PruneDocument deletes points of documentID whose ordinal is >= keep.
	PruneDocument(ctx context.Context, documentID string, keep int) error
	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)
}

// Payload keys stored with every point.
const (
	PayloadFile       = "file"
	PayloadChunkIndex = "chunk_index"
	PayloadText       = "text"
)

// PointID derives the stable point id of a chunk: a name-based UUID (v5, DNS namespace)
// of "<documentID>-<ordinal>". Re-indexing the same chunk therefore overwrites it.
func PointID(documentID string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(fmt.Sprintf("%s-%d", documentID, ordinal))).String()
}

// CheckDimension verifies every point vector has the collection dimension.
func CheckDimension(points []domain.Point, dimension int) error {
	for _, p := range points {
		if len(p.Vector) != dimension {
			return fmt.Errorf("%w: point %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), dimension)
		}
	}
	return nil
}

// Package storetest holds behaviour checks shared by every vectorstore.Storage adapter.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragsync/internal/domain"
	"ragsync/internal/vectorstore"
)

// Dimension is the vector size used by the shared checks.
const Dimension = 3

// Point builds a point with the canonical id for doc/ordinal.
func Point(doc string, ordinal int, text string, vec ...float32) domain.Point {
	return domain.Point{
		ID:     vectorstore.PointID(doc, ordinal),
		Vector: vec,
		Chunk:  domain.Chunk{DocumentID: doc, Index: ordinal, Text: text},
	}
}

// Run exercises s, which must be a fresh store of Dimension-sized vectors.
func Run(t *testing.T, newStore func(t *testing.T) vectorstore.Storage) {
	ctx := context.Background()

	t.Run("upsert is idempotent by id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx))
		require.NoError(t, s.EnsureCollection(ctx))

		pts := []domain.Point{
			Point("a.md", 0, "alpha", 1, 0, 0),
			Point("a.md", 1, "beta", 0, 1, 0),
		}
		require.NoError(t, s.Upsert(ctx, pts))
		require.NoError(t, s.Upsert(ctx, pts))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("search orders by similarity", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx))
		require.NoError(t, s.Upsert(ctx, []domain.Point{
			Point("a.md", 0, "x axis", 1, 0, 0),
			Point("b.md", 0, "y axis", 0, 1, 0),
			Point("c.md", 0, "mostly x", 0.9, 0.1, 0),
		}))

		res, err := s.Search(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, domain.Chunk{DocumentID: "a.md", Index: 0, Text: "x axis"}, res[0].Chunk)
		assert.Equal(t, "c.md", res[1].Chunk.DocumentID)
		assert.GreaterOrEqual(t, res[0].Score, res[1].Score)

		all, err := s.Search(ctx, []float32{0, 1, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, "b.md", all[0].Chunk.DocumentID)
	})

	t.Run("search on empty collection", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx))
		res, err := s.Search(ctx, []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("reindex overwrites text", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx))
		require.NoError(t, s.Upsert(ctx, []domain.Point{Point("a.md", 0, "old", 1, 0, 0)}))
		require.NoError(t, s.Upsert(ctx, []domain.Point{Point("a.md", 0, "new", 1, 0, 0)}))

		res, err := s.Search(ctx, []float32{1, 0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "new", res[0].Chunk.Text)
	})

	t.Run("prune removes trailing ordinals of one document", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx))
		require.NoError(t, s.Upsert(ctx, []domain.Point{
			Point("a.md", 0, "a0", 1, 0, 0),
			Point("a.md", 1, "a1", 0, 1, 0),
			Point("a.md", 2, "a2", 0, 0, 1),
			Point("b.md", 1, "b1", 0, 1, 0),
		}))

		require.NoError(t, s.PruneDocument(ctx, "a.md", 1))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		res, err := s.Search(ctx, []float32{0, 1, 0}, 2)
		require.NoError(t, err)
		for _, r := range res {
			assert.False(t, r.Chunk.DocumentID == "a.md" && r.Chunk.Index >= 1, "stale chunk %+v", r.Chunk)
		}
	})

	t.Run("dimension mismatch rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx))
		err := s.Upsert(ctx, []domain.Point{Point("a.md", 0, "short", 1, 0)})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("drop empties the collection", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureCollection(ctx))
		require.NoError(t, s.Upsert(ctx, []domain.Point{Point("a.md", 0, "a", 1, 0, 0)}))
		require.NoError(t, s.DropCollection(ctx))
		require.NoError(t, s.EnsureCollection(ctx))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

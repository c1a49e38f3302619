package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragsync/internal/domain"
	"ragsync/internal/vectorstore/memory"
)

type fakeEmbedder struct {
	vec  []float32
	err  error
	task string
}

func (f *fakeEmbedder) EmbedOne(_ context.Context, _ string, taskType string) ([]float32, error) {
	f.task = taskType
	return f.vec, f.err
}

func seededStore(t *testing.T) *memory.Storage {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStorage(2)
	require.NoError(t, s.EnsureCollection(ctx))
	var pts []domain.Point
	for i := 0; i < 8; i++ {
		pts = append(pts, domain.Point{
			ID:     fmt.Sprintf("p%d", i),
			Vector: []float32{1, float32(i)},
			Chunk:  domain.Chunk{DocumentID: fmt.Sprintf("doc%d.md", i), Text: fmt.Sprintf("text %d", i)},
		})
	}
	require.NoError(t, s.Upsert(ctx, pts))
	return s
}

func TestRetrieve(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 0}}
	r := New(emb, seededStore(t), 0, "RETRIEVAL_QUERY")

	res, err := r.Retrieve(context.Background(), "question")

	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, r.topK)
	require.Len(t, res, DefaultTopK)
	assert.Equal(t, "doc0.md", res[0].Chunk.DocumentID)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
	assert.Equal(t, "RETRIEVAL_QUERY", emb.task)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	emb := &fakeEmbedder{err: fmt.Errorf("%w: boom", domain.ErrEmbeddingFailed)}
	r := New(emb, seededStore(t), 3, "")

	_, err := r.Retrieve(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
}

func TestRetrieve_SearchFailure(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 0}}
	r := New(emb, memory.NewStorage(2), 3, "")

	_, err := r.Retrieve(context.Background(), "question")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCollectionMissing))
	assert.False(t, errors.Is(err, domain.ErrEmbeddingFailed))
}

func TestFormatContext(t *testing.T) {
	got := FormatContext([]domain.SearchResult{
		{Chunk: domain.Chunk{DocumentID: "b.md", Index: 2, Text: "second"}},
		{Chunk: domain.Chunk{DocumentID: "a.md", Index: 0, Text: "first"}},
	})
	assert.Equal(t, "File: b.md | Chunk: 2\nsecond\n\nFile: a.md | Chunk: 0\nfirst", got)
	assert.Empty(t, FormatContext(nil))
}

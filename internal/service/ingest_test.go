package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragsync/internal/answer"
	"ragsync/internal/chunker"
	"ragsync/internal/domain"
	"ragsync/internal/embedding"
	"ragsync/internal/embedding/hashed"
	"ragsync/internal/hashstore"
	"ragsync/internal/indexer"
	"ragsync/internal/logger"
	"ragsync/internal/retriever"
	"ragsync/internal/vectorstore"
	"ragsync/internal/vectorstore/memory"
)

// countingEmbedder counts provider calls and can fail with a fixed error.
type countingEmbedder struct {
	inner *hashed.Embedder
	calls int
	err   error
}

func (c *countingEmbedder) Name() string { return "counting" }

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string, task string) ([][]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.EmbedBatch(ctx, texts, task)
}

// flakyStore fails every upsert while fail is set.
type flakyStore struct {
	*memory.Storage
	fail bool
}

func (f *flakyStore) Upsert(ctx context.Context, pts []domain.Point) error {
	if f.fail {
		return errors.New("qdrant unavailable")
	}
	return f.Storage.Upsert(ctx, pts)
}

type capturingGenerator struct {
	prompts []string
}

func (g *capturingGenerator) Name() string { return "capture" }

func (g *capturingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return "generated", nil
}

type harness struct {
	ingester *Ingester
	provider *countingEmbedder
	client   *embedding.Client
	store    *flakyStore
	hashes   *hashstore.JSONFile
	joblog   *bytes.Buffer
}

const dim = 512

func newHarness(t *testing.T) *harness {
	t.Helper()
	provider := &countingEmbedder{inner: hashed.NewEmbedder(dim)}
	client := embedding.NewClient(provider, embedding.Config{MaxRetries: 0})
	store := &flakyStore{Storage: memory.NewStorage(dim)}
	hashes := hashstore.NewJSONFile(filepath.Join(t.TempDir(), "article_hashes.json"))
	var joblog bytes.Buffer

	in := NewIngester(hashes, chunker.NewLineChunker(0), client, indexer.New(store, 2),
		logger.NewJobLog(&joblog, nil), IngesterConfig{BatchSize: 2})
	return &harness{ingester: in, provider: provider, client: client, store: store, hashes: hashes, joblog: &joblog}
}

func (h *harness) pointIDs(doc string) []string {
	var ids []string
	for _, p := range h.store.Points() {
		if p.Chunk.DocumentID == doc {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func docs(a, b string) []domain.Document {
	return []domain.Document{
		{ID: "a.md", Content: a},
		{ID: "b.md", Content: b},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	sum, err := h.ingester.Run(ctx, docs("alpha content", "beta content"))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Added)
	assert.Zero(t, sum.Updated+sum.Skipped+sum.Failed)
	assert.Equal(t, 2, sum.Points)
	n, _ := h.store.Count(ctx)
	assert.Equal(t, 2, n)
	bIDs := h.pointIDs("b.md")

	sum, err = h.ingester.Run(ctx, docs("alpha content revised", "beta content"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Added)
	require.Len(t, sum.Results, 2)
	assert.Equal(t, domain.StatusUpdated, sum.Results[0].Status)
	assert.Equal(t, domain.StatusSkipped, sum.Results[1].Status)

	n, _ = h.store.Count(ctx)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{vectorstore.PointID("a.md", 0)}, h.pointIDs("a.md"))
	assert.Equal(t, bIDs, h.pointIDs("b.md"))
	for _, p := range h.store.Points() {
		if p.Chunk.DocumentID == "a.md" {
			assert.Equal(t, "alpha content revised", p.Chunk.Text)
		}
	}

	gen := &capturingGenerator{}
	r := retriever.New(h.client, h.store, 1, embedding.TaskQuestionAnswering)
	a := answer.New(r, gen, answer.Config{})
	got, err := a.Answer(ctx, "Tell me about beta")
	require.NoError(t, err)
	assert.Equal(t, answer.Answered, got.Outcome)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "File: b.md | Chunk: 0\nbeta content")
	assert.NotContains(t, gen.prompts[0], "a.md")
}

func TestRun_UnchangedIsSkipped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.ingester.Run(ctx, docs("alpha content", "beta content"))
	require.NoError(t, err)
	calls := h.provider.calls
	h.joblog.Reset()

	sum, err := h.ingester.Run(ctx, docs("alpha content", "beta content"))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Skipped)
	assert.Zero(t, sum.Points)
	assert.Equal(t, calls, h.provider.calls, "no embedding for skipped documents")

	log := h.joblog.String()
	assert.Contains(t, log, "Skipped: a.md")
	assert.Contains(t, log, "No new or updated articles to upload.")
	assert.Contains(t, log, "Summary: Added=0, Updated=0, Skipped=2, Failed=0")
}

func TestRun_UpsertFailureRetriedNextRun(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.ingester.Run(ctx, docs("alpha content", "beta content"))
	require.NoError(t, err)

	h.store.fail = true
	sum, err := h.ingester.Run(ctx, docs("alpha content revised", "beta content"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, StageIndex, sum.Results[0].Stage)
	assert.Contains(t, h.joblog.String(), "[a.md] index error: ")

	h.store.fail = false
	sum, err = h.ingester.Run(ctx, docs("alpha content revised", "beta content"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated, "failed document is re-classified")
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Failed)
}

func TestRun_EmbeddingFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.provider.err = errors.New("invalid argument")

	sum, err := h.ingester.Run(ctx, docs("alpha content", "beta content"))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Added)
	assert.Equal(t, 2, sum.Failed)
	for _, r := range sum.Results {
		assert.Equal(t, StageEmbed, r.Stage)
		assert.ErrorIs(t, r.Err, domain.ErrEmbeddingFailed)
	}

	records, err := h.hashes.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "failed documents are not committed")
}

func TestRun_ShrunkDocumentPruned(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.ingester.chunker = chunker.NewLineChunker(20)

	var long []string
	for i := 0; i < 6; i++ {
		long = append(long, fmt.Sprintf("line number %d", i))
	}
	_, err := h.ingester.Run(ctx, docs(strings.Join(long, "\n"), "beta content"))
	require.NoError(t, err)
	assert.Len(t, h.pointIDs("a.md"), 6)

	_, err = h.ingester.Run(ctx, docs("line number 0", "beta content"))
	require.NoError(t, err)
	assert.Equal(t, []string{vectorstore.PointID("a.md", 0)}, h.pointIDs("a.md"))
}

func TestRun_BatchesEmbeddings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.ingester.chunker = chunker.NewLineChunker(10)

	text := "aaaa bbbb\ncccc dddd\neeee ffff\ngggg hhhh\niiii jjjj"
	sum, err := h.ingester.Run(ctx, []domain.Document{{ID: "a.md", Content: text}})
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Chunks)
	assert.Equal(t, 3, h.provider.calls, "5 chunks in batches of 2")
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.ingester.Run(ctx, docs("a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummary_String(t *testing.T) {
	s := Summary{Added: 1, Updated: 2, Skipped: 3, Failed: 4}
	assert.Equal(t, "Summary: Added=1, Updated=2, Skipped=3, Failed=4", s.String())
}

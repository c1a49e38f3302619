package service

import (
	"context"
	"fmt"

	"ragsync/internal/changedetect"
	"ragsync/internal/domain"
	"ragsync/internal/embedding"
	"ragsync/internal/logger"
)

// JobLogger records operational events of an ingestion run.
type JobLogger interface {
	Printf(format string, args ...any)
}

// Chunker splits a document into ordered chunks.
type Chunker interface {
	Chunk(doc domain.Document) []domain.Chunk
}

// BatchEmbedder embeds texts with bounded retries.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// DocumentIndexer writes the points of one document.
type DocumentIndexer interface {
	EnsureCollection(ctx context.Context) error
	Index(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) (int, error)
}

// Stage names used in per-document failures.
const (
	StageEmbed = "embed"
	StageIndex = "index"
)

// DocumentResult is the outcome of one document in a run.
type DocumentResult struct {
	ID     string
	Status domain.ChangeStatus
	Chunks int
	Points int
	Stage  string
	Err    error
}

// Failed reports whether the document could not be indexed.
func (r DocumentResult) Failed() bool { return r.Err != nil }

// Summary aggregates a run.
type Summary struct {
	Added   int
	Updated int
	Skipped int
	Failed  int
	Chunks  int
	Points  int
	Results []DocumentResult
}

// String renders the summary line written at the end of a run.
func (s Summary) String() string {
	return fmt.Sprintf("Summary: Added=%d, Updated=%d, Skipped=%d, Failed=%d", s.Added, s.Updated, s.Skipped, s.Failed)
}

// IngesterConfig configures an Ingester.
type IngesterConfig struct {
	BatchSize int
	TaskType  string
}

// Ingester synchronises the vector index with a set of documents.
type Ingester struct {
	store     changedetect.Store
	chunker   Chunker
	embedder  BatchEmbedder
	indexer   DocumentIndexer
	log       JobLogger
	batchSize int
	taskType  string
}

// NewIngester wires the ingestion pipeline.
func NewIngester(store changedetect.Store, chunker Chunker, embedder BatchEmbedder, indexer DocumentIndexer, log JobLogger, cfg IngesterConfig) *Ingester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = embedding.DefaultBatchSize
	}
	if cfg.TaskType == "" {
		cfg.TaskType = embedding.TaskQuestionAnswering
	}
	return &Ingester{
		store:     store,
		chunker:   chunker,
		embedder:  embedder,
		indexer:   indexer,
		log:       log,
		batchSize: cfg.BatchSize,
		taskType:  cfg.TaskType,
	}
}

// Run classifies every document, re-indexes the added and updated ones and
// persists the hash records once. Hash records of documents that failed are not
// advanced, so the next run retries them. Errors returned by Run are fatal to the
// whole run; per-document failures are reported in the summary.
func (in *Ingester) Run(ctx context.Context, docs []domain.Document) (Summary, error) {
	var sum Summary

	det, err := changedetect.Load(ctx, in.store)
	if err != nil {
		return sum, err
	}
	if err := in.indexer.EnsureCollection(ctx); err != nil {
		return sum, err
	}

	changed := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		dec := det.Classify(doc)
		in.log.Printf("%s: %s", dec.Status, doc.ID)

		res := DocumentResult{ID: doc.ID, Status: dec.Status}
		switch dec.Status {
		case domain.StatusSkipped:
			sum.Skipped++
			det.Commit(doc.ID, dec.Hash)
			sum.Results = append(sum.Results, res)
			continue
		case domain.StatusAdded:
			sum.Added++
		case domain.StatusUpdated:
			sum.Updated++
		}
		changed++

		res = in.indexDocument(ctx, doc, res)
		if res.Failed() {
			sum.Failed++
			in.log.Printf("[%s] %s error: %v", doc.ID, res.Stage, res.Err)
		} else {
			det.Commit(doc.ID, dec.Hash)
		}
		sum.Chunks += res.Chunks
		sum.Points += res.Points
		sum.Results = append(sum.Results, res)
	}

	if changed == 0 {
		in.log.Printf("No new or updated articles to upload.")
	}
	if err := det.Save(ctx); err != nil {
		return sum, err
	}
	in.log.Printf("%s", sum)
	return sum, nil
}

func (in *Ingester) indexDocument(ctx context.Context, doc domain.Document, res DocumentResult) DocumentResult {
	chunks := in.chunker.Chunk(doc)
	res.Chunks = len(chunks)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(texts); start += in.batchSize {
		end := start + in.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := in.embedder.EmbedBatch(ctx, texts[start:end], in.taskType)
		if err != nil {
			res.Stage, res.Err = StageEmbed, err
			return res
		}
		vectors = append(vectors, batch...)
	}
	logger.Debug("[%s] embedded %d chunks", doc.ID, len(chunks))

	n, err := in.indexer.Index(ctx, doc.ID, chunks, vectors)
	res.Points = n
	if err != nil {
		res.Stage, res.Err = StageIndex, err
	}
	return res
}

// Package chromem stores points in an embedded chromem-go collection.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"ragsync/internal/domain"
	"ragsync/internal/vectorstore"
)

// Config configures the embedded store. An empty Path keeps everything in memory.
type Config struct {
	Path       string
	Compress   bool
	Collection string
	Dimension  int
}

// Storage adapts one chromem-go collection to vectorstore.Storage.
type Storage struct {
	mu        sync.Mutex
	db        *chromem.DB
	name      string
	dimension int
}

var _ vectorstore.Storage = (*Storage)(nil)

// errNoEmbedding guards against chromem embedding content itself; vectors are always supplied.
var errNoEmbedding = errors.New("chromem: vectors must be supplied by the caller")

func noEmbedding(context.Context, string) ([]float32, error) { return nil, errNoEmbedding }

// NewStorage opens the database at cfg.Path, or an in-memory one when the path is empty.
func NewStorage(cfg Config) (*Storage, error) {
	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db %s: %w", cfg.Path, err)
		}
	}
	return &Storage{db: db, name: cfg.Collection, dimension: cfg.Dimension}, nil
}

func (s *Storage) collection() (*chromem.Collection, error) {
	c := s.db.GetCollection(s.name, noEmbedding)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionMissing, s.name)
	}
	return c, nil
}

// EnsureCollection creates the collection, or checks that an existing one holds
// vectors of the configured dimension.
func (s *Storage) EnsureCollection(ctx context.Context) error {
	if s.dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.db.GetOrCreateCollection(s.name, map[string]string{"dimension": strconv.Itoa(s.dimension)}, noEmbedding)
	if err != nil {
		return err
	}
	return s.checkDimension(ctx, c)
}

// checkDimension reads the dimension back from a stored vector, since chromem
// does not expose collection metadata. An empty collection accepts any dimension.
func (s *Storage) checkDimension(ctx context.Context, c *chromem.Collection) error {
	if c.Count() == 0 {
		return nil
	}
	probe := make([]float32, s.dimension)
	probe[0] = 1
	res, err := c.QueryEmbedding(ctx, probe, 1, nil, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: collection %s does not hold %d-dimensional vectors: %v", domain.ErrDimensionMismatch, s.name, s.dimension, err)
	}
	if len(res) > 0 && len(res[0].Embedding) != s.dimension {
		return fmt.Errorf("%w: collection %s has size %d, want %d", domain.ErrDimensionMismatch, s.name, len(res[0].Embedding), s.dimension)
	}
	return nil
}

func (s *Storage) DropCollection(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DeleteCollection(s.name)
}

func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := vectorstore.CheckDimension(points, s.dimension); err != nil {
		return err
	}
	c, err := s.collection()
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		docs[i] = chromem.Document{
			ID: p.ID,
			Metadata: map[string]string{
				vectorstore.PayloadFile:       p.Chunk.DocumentID,
				vectorstore.PayloadChunkIndex: strconv.Itoa(p.Chunk.Index),
			},
			Embedding: append([]float32(nil), p.Vector...),
			Content:   p.Chunk.Text,
		}
	}
	return c.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	c, err := s.collection()
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}
	// chromem rejects a result count above the collection size.
	if n := c.Count(); topK > n {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}
	res, err := c.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(res))
	for _, r := range res {
		idx, _ := strconv.Atoi(r.Metadata[vectorstore.PayloadChunkIndex])
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{
				DocumentID: r.Metadata[vectorstore.PayloadFile],
				Index:      idx,
				Text:       r.Content,
			},
			Score: float64(r.Similarity),
		})
	}
	return results, nil
}

// PruneDocument walks ordinals upward from keep. Ordinals are dense, so the first
// missing id ends the stale range.
func (s *Storage) PruneDocument(ctx context.Context, documentID string, keep int) error {
	c, err := s.collection()
	if err != nil {
		return err
	}
	var stale []string
	for i := keep; ; i++ {
		id := vectorstore.PointID(documentID, i)
		if _, err := c.GetByID(ctx, id); err != nil {
			break
		}
		stale = append(stale, id)
	}
	if len(stale) == 0 {
		return nil
	}
	return c.Delete(ctx, nil, nil, stale...)
}

func (s *Storage) Count(_ context.Context) (int, error) {
	c, err := s.collection()
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"ragsync/internal/domain"
	"ragsync/internal/vectorstore"
)

// Storage is an in-process vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	created   bool
	points    map[string]domain.Point
}

var _ vectorstore.Storage = (*Storage)(nil)

// NewStorage creates an empty store for vectors of the given dimension.
func NewStorage(dimension int) *Storage {
	return &Storage{dimension: dimension, points: make(map[string]domain.Point)}
}

func (s *Storage) EnsureCollection(_ context.Context) error {
	if s.dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	return nil
}

func (s *Storage) DropCollection(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = false
	s.points = make(map[string]domain.Point)
	return nil
}

func (s *Storage) Upsert(_ context.Context, points []domain.Point) error {
	if err := vectorstore.CheckDimension(points, s.dimension); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return domain.ErrCollectionMissing
	}
	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		s.points[p.ID] = p
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return nil, domain.ErrCollectionMissing
	}
	if topK <= 0 {
		topK = 5
	}

	type scored struct {
		id    string
		score float64
	}
	all := make([]scored, 0, len(s.points))
	for id, p := range s.points {
		all = append(all, scored{id: id, score: cosine(p.Vector, vector)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id < all[j].id
	})
	if topK > len(all) {
		topK = len(all)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, sc := range all[:topK] {
		results = append(results, domain.SearchResult{Chunk: s.points[sc.id].Chunk, Score: sc.score})
	}
	return results, nil
}

func (s *Storage) PruneDocument(_ context.Context, documentID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.Chunk.DocumentID == documentID && p.Chunk.Index >= keep {
			delete(s.points, id)
		}
	}
	return nil
}

func (s *Storage) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// Points returns a copy of every stored point. Used by tests and dry runs.
func (s *Storage) Points() []domain.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Point, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Chunk.DocumentID != out[j].Chunk.DocumentID {
			return out[i].Chunk.DocumentID < out[j].Chunk.DocumentID
		}
		return out[i].Chunk.Index < out[j].Chunk.Index
	})
	return out
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package qdrant

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragsync/internal/domain"
	"ragsync/internal/vectorstore"
	"ragsync/internal/vectorstore/storetest"
)

// fakeQdrant implements the subset of the Qdrant REST API the adapter uses.
type fakeQdrant struct {
	mu       sync.Mutex
	size     int
	exists   bool
	points   map[string]point
	requests []string
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{points: map[string]point{}}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.Header.Get("api-key") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/collections/OptiBot")
	if path != "" && !f.exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case path == "" && r.Method == http.MethodGet:
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"result": map[string]any{"config": map[string]any{
			"params": map[string]any{"vectors": map[string]any{"size": f.size, "distance": "Cosine"}},
		}}})
	case path == "" && r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Vectors.Distance != "Cosine" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.exists, f.size = true, body.Vectors.Size
		writeJSON(w, map[string]any{"result": true})
	case path == "" && r.Method == http.MethodDelete:
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.exists, f.points = false, map[string]point{}
		writeJSON(w, map[string]any{"result": true})
	case path == "/points" && r.Method == http.MethodPut:
		var body struct {
			Points []point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p.ID] = p
		}
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	case path == "/points/search":
		var body struct {
			Vector []float32 `json:"vector"`
			Limit  int       `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		type hit struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		}
		hits := []hit{}
		for id, p := range f.points {
			hits = append(hits, hit{ID: id, Score: cosine(p.Vector, body.Vector), Payload: p.Payload})
		}
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			return hits[i].ID < hits[j].ID
		})
		if len(hits) > body.Limit {
			hits = hits[:body.Limit]
		}
		writeJSON(w, map[string]any{"result": hits})
	case path == "/points/delete":
		var body struct {
			Filter struct {
				Must []struct {
					Key   string `json:"key"`
					Match *struct {
						Value string `json:"value"`
					} `json:"match"`
					Range *struct {
						Gte float64 `json:"gte"`
					} `json:"range"`
				} `json:"must"`
			} `json:"filter"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for id, p := range f.points {
			matches := true
			for _, cond := range body.Filter.Must {
				switch {
				case cond.Match != nil:
					matches = matches && p.Payload[cond.Key] == cond.Match.Value
				case cond.Range != nil:
					v, _ := p.Payload[cond.Key].(float64)
					matches = matches && v >= cond.Range.Gte
				}
			}
			if matches {
				delete(f.points, id)
			}
		}
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	case path == "/points/count":
		writeJSON(w, map[string]any{"result": map[string]any{"count": len(f.points)}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func newTestStorage(t *testing.T, dim int) (*Storage, *fakeQdrant) {
	t.Helper()
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewStorage(Config{URL: srv.URL + "/", APIKey: "secret", Collection: "OptiBot", Dimension: dim}), fake
}

func TestStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) vectorstore.Storage {
		s, _ := newTestStorage(t, storetest.Dimension)
		return s
	})
}

func TestEnsureCollection_CreatesOnlyWhenMissing(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStorage(t, 3)

	require.NoError(t, s.EnsureCollection(ctx))
	require.NoError(t, s.EnsureCollection(ctx))

	assert.Equal(t, []string{
		"GET /collections/OptiBot",
		"PUT /collections/OptiBot",
		"GET /collections/OptiBot",
	}, fake.requests)
	assert.Equal(t, 3, fake.size)
}

func TestEnsureCollection_SizeMismatch(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStorage(t, 3)
	fake.exists, fake.size = true, 768

	err := s.EnsureCollection(ctx)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestUpsert_PayloadShape(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStorage(t, 3)
	require.NoError(t, s.EnsureCollection(ctx))

	p := storetest.Point("reset.md", 2, "Open settings", 1, 0, 0)
	require.NoError(t, s.Upsert(ctx, []domain.Point{p}))

	stored := fake.points[p.ID]
	assert.Equal(t, map[string]any{"file": "reset.md", "chunk_index": float64(2), "text": "Open settings"}, stored.Payload)
}

func TestUpsert_MissingCollection(t *testing.T) {
	s, _ := newTestStorage(t, 3)
	err := s.Upsert(context.Background(), []domain.Point{storetest.Point("a.md", 0, "a", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrCollectionMissing)
}

func TestDo_Unauthorized(t *testing.T) {
	s, _ := newTestStorage(t, 3)
	s.apiKey = "wrong"
	err := s.EnsureCollection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ragsync/internal/domain"
	"ragsync/internal/vectorstore"
)

// Storage is a minimal REST client to one Qdrant collection using cosine distance.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

var _ vectorstore.Storage = (*Storage)(nil)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// errNotFound is returned by do for 404 responses.
var errNotFound = errors.New("not found")

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection creates the collection when missing and checks the vector size otherwise.
func (s *Storage) EnsureCollection(ctx context.Context) error {
	if s.dimension <= 0 {
		return errors.New("invalid dimension")
	}
	var info collectionInfo
	err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, &info)
	switch {
	case err == nil:
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != s.dimension {
			return fmt.Errorf("%w: collection %s has size %d, configured %d",
				domain.ErrDimensionMismatch, s.collection, size, s.dimension)
		}
		return nil
	case !errors.Is(err, errNotFound):
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
}

func (s *Storage) DropCollection(ctx context.Context) error {
	err := s.do(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)
	if errors.Is(err, errNotFound) {
		return nil
	}
	return err
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := vectorstore.CheckDimension(points, s.dimension); err != nil {
		return err
	}
	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, len(points))}
	for i, p := range points {
		body.Points[i] = point{
			ID:     p.ID,
			Vector: p.Vector,
			Payload: map[string]any{
				vectorstore.PayloadFile:       p.Chunk.DocumentID,
				vectorstore.PayloadChunkIndex: p.Chunk.Index,
				vectorstore.PayloadText:       p.Chunk.Text,
			},
		}
	}
	err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrCollectionMissing, s.collection)
	}
	return err
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				File       string `json:"file"`
				ChunkIndex int    `json:"chunk_index"`
				Text       string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCollectionMissing, s.collection)
		}
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{
				DocumentID: r.Payload.File,
				Index:      r.Payload.ChunkIndex,
				Text:       r.Payload.Text,
			},
			Score: r.Score,
		})
	}
	return results, nil
}

func (s *Storage) PruneDocument(ctx context.Context, documentID string, keep int) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": vectorstore.PayloadFile, "match": map[string]any{"value": documentID}},
				{"key": vectorstore.PayloadChunkIndex, "range": map[string]any{"gte": keep}},
			},
		},
	}
	return s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil)
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Storage) do(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant %s %s: %w", method, url, errNotFound)
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

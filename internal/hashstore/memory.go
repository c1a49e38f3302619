package hashstore

import (
	"context"
	"maps"
	"sync"

	"ragsync/internal/changedetect"
)

// Memory keeps records for the life of the process. It pairs with the
// in-process vector store, so a dry run never persists hashes for points
// that disappear on exit.
type Memory struct {
	mu      sync.Mutex
	records map[string]string
}

var _ changedetect.Store = (*Memory)(nil)

// NewMemory creates an empty record store.
func NewMemory() *Memory {
	return &Memory{records: map[string]string{}}
}

func (s *Memory) Load(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.records), nil
}

func (s *Memory) Save(_ context.Context, records map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = maps.Clone(records)
	if s.records == nil {
		s.records = map[string]string{}
	}
	return nil
}

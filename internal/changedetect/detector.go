// Package changedetect classifies documents against the hash of their last indexed content.
package changedetect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"ragsync/internal/domain"
)

// Store persists hash records between runs.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, records map[string]string) error
}

// Decision is the outcome of classifying one document.
type Decision struct {
	Status domain.ChangeStatus
	Hash   string
}

// Detector holds the hash records of one ingestion run in memory.
// Records change only through Commit, so a document whose indexing failed keeps its old hash.
type Detector struct {
	mu      sync.Mutex
	store   Store
	records map[string]string
}

// Load reads the persisted records. A store without records yields an empty map.
func Load(ctx context.Context, store Store) (*Detector, error) {
	records, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hash records: %w", err)
	}
	if records == nil {
		records = make(map[string]string)
	}
	return &Detector{store: store, records: records}, nil
}

// Hash returns the hex SHA-256 digest of the raw document text.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Classify compares the document with its stored hash. It never mutates records.
func (d *Detector) Classify(doc domain.Document) Decision {
	h := Hash(doc.Content)

	d.mu.Lock()
	prev, ok := d.records[doc.ID]
	d.mu.Unlock()

	switch {
	case !ok:
		return Decision{Status: domain.StatusAdded, Hash: h}
	case prev != h:
		return Decision{Status: domain.StatusUpdated, Hash: h}
	default:
		return Decision{Status: domain.StatusSkipped, Hash: h}
	}
}

// Commit records hash as the indexed state of id.
func (d *Detector) Commit(id, hash string) {
	d.mu.Lock()
	d.records[id] = hash
	d.mu.Unlock()
}

// Records returns a copy of the current records.
func (d *Detector) Records() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.records))
	for k, v := range d.records {
		out[k] = v
	}
	return out
}

// Save persists all records.
func (d *Detector) Save(ctx context.Context) error {
	if err := d.store.Save(ctx, d.Records()); err != nil {
		return fmt.Errorf("save hash records: %w", err)
	}
	return nil
}

// Package hashstore persists document hash records.
package hashstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ragsync/internal/changedetect"
)

// DefaultJSONPath is the record file used when none is configured.
const DefaultJSONPath = "article_hashes.json"

// JSONFile stores records as one indented JSON object mapping id to hash.
type JSONFile struct {
	path string
}

var _ changedetect.Store = (*JSONFile)(nil)

// NewJSONFile creates a JSON record store at path.
func NewJSONFile(path string) *JSONFile {
	if path == "" {
		path = DefaultJSONPath
	}
	return &JSONFile{path: path}
}

// Path returns the record file location.
func (s *JSONFile) Path() string { return s.path }

// Load reads the record file. A missing file yields an empty map.
func (s *JSONFile) Load(_ context.Context) (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	records := map[string]string{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return records, nil
}

// Save rewrites the record file through a temporary file and rename.
func (s *JSONFile) Save(_ context.Context, records map[string]string) error {
	if records == nil {
		records = map[string]string{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

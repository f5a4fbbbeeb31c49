package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// JSONFileStore persists a map as an indented JSON file. Writes go through
// a temp file and rename so a crash mid-write never leaves a torn record.
type JSONFileStore struct {
	path string
}

// NewJSONFileStore creates a store backed by the given file path, creating
// parent directories as needed.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &JSONFileStore{path: path}, nil
}

// Load reads the full map from disk. A missing file or malformed JSON
// yields an empty map with a warning.
func (s *JSONFileStore) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[JSONFileStore] Read failed for %s, starting empty: %v", s.path, err)
		}
		return map[string]json.RawMessage{}, nil
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(b, &records); err != nil {
		log.Printf("[JSONFileStore] Corrupt store file %s, starting empty: %v", s.path, err)
		return map[string]json.RawMessage{}, nil
	}
	if records == nil {
		records = map[string]json.RawMessage{}
	}
	return records, nil
}

// Save atomically replaces the store file with the given map.
func (s *JSONFileStore) Save(ctx context.Context, records map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// Close is a no-op for file-backed stores.
func (s *JSONFileStore) Close() error { return nil }

// JSONFileFactory creates one JSON file per named store under a directory.
type JSONFileFactory struct {
	dir string
}

// NewJSONFileFactory creates a factory rooted at dir.
func NewJSONFileFactory(dir string) *JSONFileFactory {
	return &JSONFileFactory{dir: dir}
}

// Open creates a store backed by <dir>/<name>.json.
func (f *JSONFileFactory) Open(name string) (Store, error) {
	return NewJSONFileStore(filepath.Join(f.dir, name+".json"))
}

// Close is a no-op for file-backed factories.
func (f *JSONFileFactory) Close() error { return nil }

// Ensure implementations satisfy the interfaces
var (
	_ Store   = (*JSONFileStore)(nil)
	_ Factory = (*JSONFileFactory)(nil)
)

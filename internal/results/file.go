package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore implements Store with one JSON file per bundle under
// <root>/results/. The file name is the canonical key plus ".json",
// which keeps stored results inspectable without tooling.
type FileStore struct {
	resultsDir string
}

// NewFileStore creates a FileStore rooted at root, creating the results
// directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	resultsDir := filepath.Join(root, DefaultResultsDir)
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("create results directory: %w", err)
	}
	return &FileStore{resultsDir: resultsDir}, nil
}

// Load reads the bundle for key, or ErrNotFound if no file exists.
func (s *FileStore) Load(key string) (*ResultBundle, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read bundle %s: %w", key, err)
	}
	var bundle ResultBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", key, err)
	}
	return &bundle, nil
}

// Save writes the bundle for key, replacing any previous content. The
// write goes through a temp file and rename so a crash never leaves a
// half-written bundle behind.
func (s *FileStore) Save(key string, bundle *ResultBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize bundle %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(s.resultsDir, ".bundle-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write bundle %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close bundle %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename bundle %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys of all stored bundles.
func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("list results directory: %w", err)
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// Close is a no-op; the FileStore holds no open handles between calls.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.resultsDir, key+".json")
}

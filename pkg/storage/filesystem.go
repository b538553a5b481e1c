// Package storage keeps generated report artifacts on local disk and issues
// the signed tokens that authorize downloading them.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage is a report artifact store rooted at a single directory.
// Artifact names are relative paths such as "reports/logbook_20260314.xlsx".
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root directory if needed and returns the store.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root %s: %w", root, err)
	}
	return &LocalStorage{root: root}, nil
}

// Save writes an artifact and returns the name it is retrievable under.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	return name, nil
}

// Open returns a read-only handle on a stored artifact.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", name, err)
	}
	return file, nil
}

// Delete removes an artifact. Missing files are not an error, so expired
// cleanup and explicit deletes can race safely.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}
	return nil
}

// CleanupOlderThan deletes artifacts whose mtime is past the TTL and reports
// the names it removed.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var removed []string
	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		removed = append(removed, rel)
		return nil
	}
	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, fmt.Errorf("cleanup artifacts: %w", err)
	}
	return removed, nil
}

// Path returns the absolute location of an artifact on disk.
func (s *LocalStorage) Path(name string) string {
	path, err := s.resolve(name)
	if err != nil {
		return filepath.Join(s.root, filepath.Base(name))
	}
	return path
}

// resolve maps an artifact name below the root, refusing names that would
// escape it.
func (s *LocalStorage) resolve(name string) (string, error) {
	cleaned := filepath.Clean(strings.TrimPrefix(name, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact name %q escapes storage root", name)
	}
	return filepath.Join(s.root, cleaned), nil
}

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideBase is returned for paths that would escape the storage directory.
var ErrOutsideBase = errors.New("path escapes storage directory")

const tempPrefix = ".partial-"

// LocalStorage keeps generated export files on disk, one directory per export job.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates root if needed. An empty root defaults to ./exports.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "./exports"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

// Save atomically writes data as <jobID>/<filename> and returns that key.
func (s *LocalStorage) Save(jobID, filename string, data []byte) (string, error) {
	if strings.ContainsAny(jobID, `/\`) || strings.ContainsAny(filename, `/\`) {
		return "", ErrOutsideBase
	}
	key := jobID + "/" + filename
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create job directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish %s: %w", key, err)
	}
	return key, nil
}

// Open returns a read-only handle for a stored key.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// Delete removes a stored key and its job directory once empty. Missing keys are not an error.
func (s *LocalStorage) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.pruneDir(filepath.Dir(path))
	return nil
}

// CleanupOlderThan removes finished files last modified before now-ttl, prunes
// emptied job directories and returns the removed keys. In-flight temp files are skipped.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	removed := []string{}
	dirs := map[string]struct{}{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		dirs[filepath.Dir(path)] = struct{}{}
		if rel, err := filepath.Rel(s.root, path); err == nil {
			removed = append(removed, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	for dir := range dirs {
		s.pruneDir(dir)
	}
	return removed, nil
}

// Path exposes the absolute path for a stored key.
func (s *LocalStorage) Path(key string) (string, error) {
	return s.resolve(key)
}

func (s *LocalStorage) pruneDir(dir string) {
	if dir == s.root {
		return
	}
	_ = os.Remove(dir) // fails while non-empty
}

func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) {
		return "", ErrOutsideBase
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", ErrOutsideBase
	}
	return path, nil
}

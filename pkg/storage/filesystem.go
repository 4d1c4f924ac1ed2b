package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage persists files on disk under a base directory. Uploads are exposed under
// publicPath, which the HTTP server serves statically.
type LocalStorage struct {
	baseDir    string
	publicPath string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicPath string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicPath: strings.TrimRight(publicPath, "/")}, nil
}

// Dir returns the base directory.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// Save writes the given bytes to the provided relative path under the base dir.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	target := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return filename, nil
}

// SaveStream copies from reader into the target file path and returns the bytes written.
func (s *LocalStorage) SaveStream(filename string, r io.Reader) (int64, error) {
	target := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	written, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(target)
		return 0, fmt.Errorf("write stream: %w", copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("close file: %w", closeErr)
	}
	return written, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(s.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Put implements ObjectStore.
func (s *LocalStorage) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (*Object, error) {
	written, err := s.SaveStream(key, r)
	if err != nil {
		return nil, err
	}
	return &Object{
		Key:         key,
		URL:         path.Join("/", s.publicPath, filepath.ToSlash(key)),
		Size:        written,
		ContentType: contentType,
	}, nil
}

// Remove implements ObjectStore.
func (s *LocalStorage) Remove(_ context.Context, key string) error {
	return s.Delete(key)
}

// CleanupOlderThan removes files older than the provided TTL and returns deleted names.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			rel = p
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	return deleted, nil
}

// resolve keeps every key inside baseDir.
func (s *LocalStorage) resolve(filename string) string {
	clean := filepath.Clean(string(filepath.Separator) + filename)
	return filepath.Join(s.baseDir, clean)
}

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage using the local filesystem.
// Suitable for single-host cron deployments where the archive directory
// sits on durable disk.
type LocalStorage struct {
	basePath string // root directory for the archive (e.g., "./archive")
}

// NewLocalStorage creates a new local filesystem storage implementation.
// basePath is created if it doesn't exist.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// Put stores an artifact in the local filesystem.
func (s *LocalStorage) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	fullPath := filepath.Join(s.basePath, key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.URL(key), nil
}

// Get retrieves an artifact from the local filesystem.
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, key)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound(key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an artifact from the local filesystem.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.basePath, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// URL returns the filesystem path of a stored artifact.
func (s *LocalStorage) URL(key string) string {
	return filepath.Join(s.basePath, key)
}

// Exists checks if an artifact exists in the local filesystem.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.basePath, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}

	return true, nil
}

package counter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileStore keeps the counter in a local file as a decimal string.
//
// The write is temp-file-then-rename, so a crash mid-write never leaves a
// torn value. The file backend cannot compare-and-swap across processes;
// it keeps the single-writer assumption and is intended for development
// and single-host cron deployments. Use PostgresStore when overlapping
// runs are possible.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed counter store.
// The parent directory is created if it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create counter directory: %w", err)
	}

	return &FileStore{path: path}, nil
}

// Get reads the current counter value. A missing file reads as absent.
func (s *FileStore) Get(ctx context.Context) (int64, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read counter file: %w", err)
	}

	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt counter file %s: %w", s.path, err)
	}

	return value, true, nil
}

// Put persists the counter value durably. The temp file is fsynced
// before the rename and the directory after it; rename alone does not
// guarantee the value survives a crash, and the reservation protocol
// needs it on disk before anything is delivered.
func (s *FileStore) Put(ctx context.Context, value int64) error {
	tmp := s.path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create counter file: %w", err)
	}
	if _, err := f.WriteString(strconv.FormatInt(value, 10)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write counter file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync counter file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close counter file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace counter file: %w", err)
	}

	dir, err := os.Open(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("failed to open counter directory: %w", err)
	}
	defer dir.Close()
	if err := dir.Sync(); err != nil {
		return fmt.Errorf("failed to sync counter directory: %w", err)
	}

	return nil
}

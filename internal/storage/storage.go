package storage

import (
	"context"
	"io"

	"github.com/nordview/invoicer/internal"
)

// Storage defines the interface for artifact storage operations.
// Implementations can use the local filesystem, S3, or any compatible
// object store. Keys are outcome-prefixed paths such as
// "sent/acme-invoice-1042.pdf".
type Storage interface {
	// Put stores an artifact and returns its URL/path for retrieval.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves an artifact by its key.
	// Returns an io.ReadCloser that must be closed by the caller.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an artifact by its key.
	// Returns nil if the artifact doesn't exist (idempotent).
	Delete(ctx context.Context, key string) error

	// URL returns the location of a stored artifact.
	// For local storage this is a filesystem path; for S3 the object URL.
	URL(key string) string

	// Exists checks if an artifact exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorage creates a Storage implementation based on configuration.
// Returns LocalStorage for the "local" provider, S3Storage for "s3".
func NewStorage(cfg internal.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath)
	case "s3":
		return NewS3Storage(S3Config{
			Endpoint:    cfg.S3Endpoint,
			Region:      cfg.S3Region,
			AccessKeyID: cfg.S3AccessKeyID,
			SecretKey:   cfg.S3SecretKey,
			BucketName:  cfg.S3BucketName,
		})
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}

package storage

import (
	"context"
	"fmt"
	"io"

	cfg "github.com/rstamps01/image-to-text/config"
	"github.com/rstamps01/image-to-text/pkg/logger"
	"github.com/rstamps01/image-to-text/pkg/storage/minio"
	"github.com/rstamps01/image-to-text/pkg/storage/s3"
)

// Backend identifies an object storage implementation.
type Backend string

const (
	BackendS3     Backend = "s3"
	BackendMinio  Backend = "minio"
	BackendMemory Backend = "memory"
)

// Storage holds raw page images keyed by an opaque reference.
type Storage interface {
	// Store uploads an object and returns its key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get fetches an object.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object.
	Delete(ctx context.Context, key string) error
}

// NewStorage creates a storage instance for the configured backend.
func NewStorage(c *cfg.StorageConfig, log logger.Logger) (Storage, error) {
	switch Backend(c.Backend) {
	case BackendS3:
		return s3.NewClient(c, log)
	case BackendMinio:
		return minio.NewClient(c, log)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.Backend)
	}
}

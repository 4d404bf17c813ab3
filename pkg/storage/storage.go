package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/ticket-extractor/pkg/logger"
	"github.com/feichai0017/ticket-extractor/pkg/storage/local"
)

// StorageType selects a backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
)

// Storage stages uploaded files for the length of one request.
type Storage interface {
	// Store saves reader under a unique id derived from filename.
	Store(ctx context.Context, reader io.Reader, filename string) (string, error)
	// Path returns a filesystem path for id that extractors can open.
	Path(id string) (string, error)
	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, id string) error
	// CleanupBefore removes files last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

type Config struct {
	Type StorageType
	Dir  string
}

// NewStorage builds the backend named by cfg.Type.
func NewStorage(cfg Config, log logger.Logger) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return local.New(cfg.Dir, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/petems/memo-tray/internal/config"
)

// ErrNotFound is returned by Read and Delete for unknown recordings.
var ErrNotFound = errors.New("recording not found")

// Sink accepts finished recordings.
type Sink interface {
	Persist(ctx context.Context, name string, data []byte) error
}

// Store is a Sink that can also enumerate, read and remove recordings.
type Store interface {
	Sink
	List(ctx context.Context) ([]Object, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}

// Object describes a stored recording.
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFS, "":
		return NewFS(cfg.Dir), nil
	case config.BackendS3:
		return NewS3(ctx, cfg)
	case config.BackendGCS:
		return NewGCS(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// IsRecording reports whether name looks like a stored recording.
func IsRecording(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".wav")
}

// validName rejects names that would escape the store's root.
func validName(name string) error {
	if name == "" || name != path.Base(name) || name == "." || name == ".." || strings.ContainsRune(name, '\\') {
		return fmt.Errorf("invalid recording name %q", name)
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/petems/memo-tray/internal/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS keeps recordings as objects in a Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	name   string
	prefix string
}

// NewGCS authenticates with Application Default Credentials.
func NewGCS(ctx context.Context, cfg config.StorageConfig) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *GCS) object(name string) *gcs.ObjectHandle {
	return s.bucket.Object(s.prefix + name)
}

func (s *GCS) Persist(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	w := s.object(name).NewWriter(ctx)
	w.ContentType = wavContentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write gs://%s/%s%s: %w", s.name, s.prefix, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write gs://%s/%s%s: %w", s.name, s.prefix, name, err)
	}
	return nil
}

func (s *GCS) List(ctx context.Context) ([]Object, error) {
	it := s.bucket.Objects(ctx, &gcs.Query{Prefix: s.prefix})

	var objects []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", s.name, s.prefix, err)
		}
		name := strings.TrimPrefix(attrs.Name, s.prefix)
		if strings.Contains(name, "/") || !IsRecording(name) {
			continue
		}
		objects = append(objects, Object{Name: name, Size: attrs.Size, ModTime: attrs.Updated})
	}
	return objects, nil
}

func (s *GCS) Read(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	r, err := s.object(name).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s%s: %w", s.name, s.prefix, name, err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (s *GCS) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := s.object(name).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete gs://%s/%s%s: %w", s.name, s.prefix, name, err)
	}
	return nil
}

// Close releases the client's connections.
func (s *GCS) Close() error {
	return s.client.Close()
}

// Package storage provisions per-entity blob containers and moves bytes in and out of them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"writerid-portal/internal/config"
)

// ErrObjectNotFound is returned when an object or its container does not exist.
var ErrObjectNotFound = errors.New("object not found")

// AccessGrant lets a client upload directly into a container until ExpiresAt.
// Uploads are multipart POSTs to UploadURL carrying FormData plus a "key" under KeyPrefix.
type AccessGrant struct {
	Container string            `json:"container"`
	UploadURL string            `json:"upload_url"`
	FormData  map[string]string `json:"form_data,omitempty"`
	KeyPrefix string            `json:"key_prefix"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// BlobStore is the storage gateway used by the services.
type BlobStore interface {
	// CreateContainer provisions a container. Creating an existing container is not an error.
	CreateContainer(ctx context.Context, container string) error
	// DeleteContainer removes a container and its objects. Missing containers are ignored.
	DeleteContainer(ctx context.Context, container string) error
	// Upload writes an object and returns its path as "container/object".
	Upload(ctx context.Context, container, object string, data []byte, contentType string) (string, error)
	// Download reads an object, returning ErrObjectNotFound when absent.
	Download(ctx context.Context, container, object string) ([]byte, error)
	// UploadAccess issues a time-limited upload grant for a container.
	UploadAccess(ctx context.Context, container string) (*AccessGrant, error)
	// DownloadURL issues a time-limited read URL for one object.
	DownloadURL(ctx context.Context, container, object string) (string, error)
}

// New builds the configured BlobStore.
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case "minio":
		return NewMinIOStore(ctx, cfg)
	case "memory":
		return NewMemoryStore(cfg.UploadPrefix, cfg.GetAccessExpiry()), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// ObjectPath joins a container and object name.
func ObjectPath(container, object string) string {
	return container + "/" + object
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"writerid-portal/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore maps every container to its own bucket.
type MinIOStore struct {
	client       *minio.Client
	region       string
	uploadPrefix string
	expiry       time.Duration
}

// NewMinIOStore connects to an S3 compatible endpoint.
func NewMinIOStore(ctx context.Context, cfg config.StorageConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach MinIO at %s: %w", cfg.Endpoint, err)
	}

	return &MinIOStore{
		client:       client,
		region:       cfg.Region,
		uploadPrefix: cfg.UploadPrefix,
		expiry:       cfg.GetAccessExpiry(),
	}, nil
}

// CreateContainer creates the bucket if it doesn't exist.
func (s *MinIOStore) CreateContainer(ctx context.Context, container string) error {
	exists, err := s.client.BucketExists(ctx, container)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", container, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, container, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", container, err)
	}
	return nil
}

// DeleteContainer empties and removes the bucket.
func (s *MinIOStore) DeleteContainer(ctx context.Context, container string) error {
	exists, err := s.client.BucketExists(ctx, container)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", container, err)
	}
	if !exists {
		return nil
	}

	for obj := range s.client.ListObjects(ctx, container, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list bucket %s: %w", container, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, container, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete %s/%s: %w", container, obj.Key, err)
		}
	}

	if err := s.client.RemoveBucket(ctx, container); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete bucket %s: %w", container, err)
	}
	return nil
}

// Upload puts an object.
func (s *MinIOStore) Upload(ctx context.Context, container, object string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, container, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", container, object, err)
	}
	return ObjectPath(container, object), nil
}

// Download reads a whole object.
func (s *MinIOStore) Download(ctx context.Context, container, object string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, container, object, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", container, object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read %s/%s: %w", container, object, err)
	}
	return data, nil
}

// UploadAccess returns a presigned POST policy limited to the upload prefix.
func (s *MinIOStore) UploadAccess(ctx context.Context, container string) (*AccessGrant, error) {
	expiresAt := time.Now().UTC().Add(s.expiry)

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(container); err != nil {
		return nil, err
	}
	if err := policy.SetKeyStartsWith(s.uploadPrefix); err != nil {
		return nil, err
	}
	if err := policy.SetExpires(expiresAt); err != nil {
		return nil, err
	}

	u, formData, err := s.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", container, err)
	}

	return &AccessGrant{
		Container: container,
		UploadURL: u.String(),
		FormData:  formData,
		KeyPrefix: s.uploadPrefix,
		ExpiresAt: expiresAt,
	}, nil
}

// DownloadURL returns a presigned GET url.
func (s *MinIOStore) DownloadURL(ctx context.Context, container, object string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, container, object, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s/%s: %w", container, object, err)
	}
	return u.String(), nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

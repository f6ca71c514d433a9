// Package storage keeps attachments and avatars in a private MinIO bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const presignTTL = time.Hour

// ObjectStore is the subset of object storage the services need.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	// URL returns a time-limited download link for key.
	URL(ctx context.Context, key string) (string, error)
}

type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore returns nil when client is nil so callers can treat storage as optional.
func NewMinIOStore(client *minio.Client, bucket string) ObjectStore {
	if client == nil {
		return nil
	}
	return &minioStore{client: client, bucket: bucket}
}

func (s *minioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return nil
}

func (s *minioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *minioStore) URL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignTTL, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// AttachmentKey builds attachments/<yyyy>/<mm>/<id>.
func AttachmentKey(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("attachments/%s/%s", at.UTC().Format("2006/01"), id.String())
}

func AvatarKey(userID uuid.UUID) string {
	return "avatars/" + userID.String()
}

// Package media stores resource images in an S3 compatible object store.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/config"
)

// ObjectClient is the subset of *minio.Client used by ImageStore.
type ObjectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ImageStore uploads resource pictures and returns their public URL.
type ImageStore struct {
	client  ObjectClient
	bucket  string
	baseURL string
	newName func() string
}

// NewImageStore returns a store writing to bucket. Object URLs are
// baseURL/bucket/object.
func NewImageStore(client ObjectClient, bucket, baseURL string) *ImageStore {
	return &ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		newName: uuid.NewString,
	}
}

// Open connects to the object store described by cfg and makes sure the
// bucket exists.
func Open(ctx context.Context, cfg config.MinIOConfig) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = client.EndpointURL().String()
	}

	store := NewImageStore(client, cfg.Bucket, baseURL)
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureBucket creates the bucket unless it already exists.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err == nil {
		return nil
	}
	exists, existsErr := s.client.BucketExists(ctx, s.bucket)
	if existsErr == nil && exists {
		return nil
	}
	return fmt.Errorf("create bucket %s: %w", s.bucket, err)
}

// PutResourceImage uploads body under a fresh object name for resourceID.
func (s *ImageStore) PutResourceImage(ctx context.Context, resourceID, contentType string, body io.Reader, size int64) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("image store not configured")
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}

	object := ObjectName(resourceID, s.newName(), ext)
	if _, err := s.client.PutObject(ctx, s.bucket, object, body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, object), nil
}

// ObjectName is the key an image of resourceID is stored under.
func ObjectName(resourceID, name, ext string) string {
	return "recursos/" + resourceID + "/" + name + ext
}

package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type objectClientStub struct {
	bucket      string
	object      string
	body        string
	size        int64
	contentType string
	putErr      error

	makeErr error
	exists  bool
	made    int
}

func (c *objectClientStub) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if c.putErr != nil {
		return minio.UploadInfo{}, c.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	c.bucket, c.object, c.body, c.size, c.contentType = bucketName, objectName, string(data), objectSize, opts.ContentType
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func (c *objectClientStub) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return c.exists, nil
}

func (c *objectClientStub) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	c.made++
	return c.makeErr
}

func TestImageStorePutResourceImage(t *testing.T) {
	client := &objectClientStub{}
	store := NewImageStore(client, "recursos", "https://cdn.escola.test/")
	store.newName = func() string { return "abc" }

	url, err := store.PutResourceImage(context.Background(), "resource-1", "image/jpeg", strings.NewReader("jpeg"), 4)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.escola.test/recursos/recursos/resource-1/abc.jpg", url)
	assert.Equal(t, "recursos", client.bucket)
	assert.Equal(t, "recursos/resource-1/abc.jpg", client.object)
	assert.Equal(t, "jpeg", client.body)
	assert.Equal(t, int64(4), client.size)
	assert.Equal(t, "image/jpeg", client.contentType)
}

func TestImageStoreErrors(t *testing.T) {
	ctx := context.Background()

	store := NewImageStore(&objectClientStub{}, "recursos", "http://localhost:9000")
	_, err := store.PutResourceImage(ctx, "resource-1", "image/gif", strings.NewReader("gif"), 3)
	assert.Error(t, err)

	failing := NewImageStore(&objectClientStub{putErr: errors.New("access denied")}, "recursos", "http://localhost:9000")
	_, err = failing.PutResourceImage(ctx, "resource-1", "image/png", strings.NewReader("png"), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	var unconfigured *ImageStore
	_, err = unconfigured.PutResourceImage(ctx, "resource-1", "image/png", strings.NewReader("png"), 3)
	assert.Error(t, err)
}

func TestImageStoreEnsureBucket(t *testing.T) {
	ctx := context.Background()

	fresh := &objectClientStub{}
	require.NoError(t, NewImageStore(fresh, "recursos", "").EnsureBucket(ctx))
	assert.Equal(t, 1, fresh.made)

	existing := &objectClientStub{makeErr: errors.New("BucketAlreadyOwnedByYou"), exists: true}
	assert.NoError(t, NewImageStore(existing, "recursos", "").EnsureBucket(ctx))

	broken := &objectClientStub{makeErr: errors.New("access denied")}
	assert.Error(t, NewImageStore(broken, "recursos", "").EnsureBucket(ctx))
}

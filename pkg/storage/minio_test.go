package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinioClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func TestMinioStore(t *testing.T) {
	ctx := context.Background()

	t.Run("EnsureBucket creates a missing bucket", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("BucketExists", ctx, "posts").Return(false, nil)
		client.On("MakeBucket", ctx, "posts", minio.MakeBucketOptions{}).Return(nil)

		require.NoError(t, NewMinioStoreWithClient(client, "posts").EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("EnsureBucket keeps an existing bucket", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("BucketExists", ctx, "posts").Return(true, nil)

		require.NoError(t, NewMinioStoreWithClient(client, "posts").EnsureBucket(ctx))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Put", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("PutObject", ctx, "posts", "posts/a.png", mock.Anything, int64(5),
			minio.PutObjectOptions{ContentType: "image/png"}).Return(minio.UploadInfo{}, nil)

		require.NoError(t, NewMinioStoreWithClient(client, "posts").Put(ctx, "posts/a.png", []byte("hello"), "image/png"))
		client.AssertExpectations(t)
	})

	t.Run("Put surfaces client errors", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("PutObject", ctx, "posts", "posts/a.png", mock.Anything, int64(1), mock.Anything).
			Return(minio.UploadInfo{}, errors.New("boom"))

		err := NewMinioStoreWithClient(client, "posts").Put(ctx, "posts/a.png", []byte("x"), "")
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("Delete", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("RemoveObject", ctx, "posts", "posts/a.png", minio.RemoveObjectOptions{}).Return(nil)

		require.NoError(t, NewMinioStoreWithClient(client, "posts").Delete(ctx, "posts/a.png"))
		client.AssertExpectations(t)
	})
}

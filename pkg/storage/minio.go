package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// ClientMinio is the subset of *minio.Client the store relies on.
type ClientMinio interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioStore keeps images in an S3 compatible bucket.
type MinioStore struct {
	bucketName string
	client     ClientMinio
}

const defaultContentType = "application/octet-stream"

// NewMinioStore connects to endpoint and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool) (*MinioStore, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}
	store := NewMinioStoreWithClient(minioClient, bucketName)
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func NewMinioStoreWithClient(client ClientMinio, bucketName string) *MinioStore {
	return &MinioStore{bucketName: bucketName, client: client}
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucketName, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucketName, err)
	}
	log.WithField("bucket", s.bucketName).Info("created image bucket")
	return nil
}

func (s *MinioStore) Put(ctx context.Context, p string, data []byte, contentType string) error {
	key, err := cleanPath(p)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucketName, key, err)
	}
	return nil
}

// Delete relies on S3 semantics: removing a missing key succeeds.
func (s *MinioStore) Delete(ctx context.Context, p string) error {
	key, err := cleanPath(p)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s/%s: %w", s.bucketName, key, err)
	}
	return nil
}

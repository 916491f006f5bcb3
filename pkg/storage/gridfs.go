package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BucketGridFS is the subset of GridFS operations the store relies on.
// Lookups that miss report gridfs.ErrFileNotFound.
type BucketGridFS interface {
	Upload(ctx context.Context, filename string, source io.Reader, contentType string) error
	FileIDs(ctx context.Context, filename string) ([]primitive.ObjectID, error)
	DeleteFile(ctx context.Context, id primitive.ObjectID) error
	OpenByName(ctx context.Context, filename string) (io.ReadCloser, error)
}

// GridFSStore keeps images in a MongoDB GridFS bucket, keyed by filename.
type GridFSStore struct {
	bucket BucketGridFS
}

func NewGridFSStore(db *mongo.Database, bucketName string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %s: %w", bucketName, err)
	}
	return NewGridFSStoreWithBucket(mongoBucket{bucket: bucket}), nil
}

func NewGridFSStoreWithBucket(bucket BucketGridFS) *GridFSStore {
	return &GridFSStore{bucket: bucket}
}

func (s *GridFSStore) Put(ctx context.Context, p string, data []byte, contentType string) error {
	name, err := cleanPath(p)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	if err := s.bucket.Upload(ctx, name, bytes.NewReader(data), contentType); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// Delete removes every revision stored under the path.
func (s *GridFSStore) Delete(ctx context.Context, p string) error {
	name, err := cleanPath(p)
	if err != nil {
		return err
	}
	ids, err := s.bucket.FileIDs(ctx, name)
	if err != nil {
		return fmt.Errorf("find %s: %w", name, err)
	}
	for _, id := range ids {
		if err := s.bucket.DeleteFile(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}

func (s *GridFSStore) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	name, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	rc, err := s.bucket.OpenByName(ctx, name)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return rc, nil
}

// mongoBucket adapts *gridfs.Bucket to BucketGridFS.
type mongoBucket struct {
	bucket *gridfs.Bucket
}

func (b mongoBucket) Upload(_ context.Context, filename string, source io.Reader, contentType string) error {
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	_, err := b.bucket.UploadFromStream(filename, source, opts)
	return err
}

func (b mongoBucket) FileIDs(ctx context.Context, filename string) ([]primitive.ObjectID, error) {
	cursor, err := b.bucket.Find(bson.M{"filename": filename})
	if err != nil {
		return nil, err
	}
	var files []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return ids, nil
}

func (b mongoBucket) DeleteFile(_ context.Context, id primitive.ObjectID) error {
	return b.bucket.Delete(id)
}

func (b mongoBucket) OpenByName(_ context.Context, filename string) (io.ReadCloser, error) {
	stream, err := b.bucket.OpenDownloadStreamByName(filename)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

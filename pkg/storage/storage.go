// Package storage holds the image storage backends posts write their
// attachments to. Paths are relative keys such as "posts/<uuid>.png";
// how they are exposed publicly is decided by the caller.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists and removes image blobs by path.
type ImageStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// Delete removes the blob. Deleting a path that does not exist is not an error.
	Delete(ctx context.Context, path string) error
}

// Opener is implemented by stores whose content is served through the API
// rather than directly by the backend.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Directory all post images are written under.
const PostsDir = "posts"

var (
	ErrNotExist    = errors.New("storage: object does not exist")
	ErrInvalidPath = errors.New("storage: invalid path")
)

// NewImagePath returns a fresh, unique path for an image with the given extension.
func NewImagePath(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	return path.Join(PostsDir, uuid.NewString()+"."+ext)
}

// cleanPath rejects absolute paths and any attempt to leave the store root.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

package services

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest accepted upload, 2048 KiB.
const MaxImageSize = 2 << 20

// ImageUpload is an image supplied with a create or update request.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// allowedImageTypes maps accepted file extensions to their detected MIME type.
var allowedImageTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
}

// checkImage returns the extension and content type to store the image
// under, or a user-facing message explaining why it was rejected.
func checkImage(img *ImageUpload) (ext, contentType, problem string) {
	if len(img.Data) == 0 {
		return "", "", "The image field must be an image."
	}
	if len(img.Data) > MaxImageSize {
		return "", "", "The image field must not be greater than 2048 kilobytes."
	}

	ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
	want, ok := allowedImageTypes[ext]
	if !ok {
		return "", "", "The image field must be a file of type: jpeg, png, jpg, gif, svg."
	}

	detected := mimetype.Detect(img.Data)
	if !detected.Is(want) {
		return "", "", "The image field must be an image."
	}
	return ext, want, ""
}

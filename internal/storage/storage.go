// Package storage keeps uploaded tiffin images on local disk or Cloudinary.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedImage is returned for files that are not a known image type
var ErrUnsupportedImage = errors.New("unsupported image type")

// ImageStore saves an uploaded image and returns the reference stored on the tiffin
type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// imageExt returns the lowercase extension of filename when it is an allowed image type
func imageExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedImage
	}
	return ext, nil
}

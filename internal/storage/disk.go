package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MediaPrefix is the URL path the server mounts DiskStore's directory on
const MediaPrefix = "/media"

const tiffinFolder = "tiffins"

// DiskStore writes images under Dir; the server serves Dir at MediaPrefix
type DiskStore struct {
	Dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{Dir: dir}
}

func (s *DiskStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	ext, err := imageExt(filename)
	if err != nil {
		return "", err
	}
	folder := filepath.Join(s.Dir, tiffinFolder)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	name := uuid.New().String() + ext
	f, err := os.Create(filepath.Join(folder, name))
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return MediaPrefix + "/" + tiffinFolder + "/" + name, nil
}

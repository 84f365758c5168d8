package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
	"github.com/google/uuid"
)

const cloudinaryFolder = "home_eats/tiffins"

// CloudinaryStore uploads images to Cloudinary and returns their secure URL
type CloudinaryStore struct {
	uploader *uploader.API
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, fmt.Errorf("cloudinary uploader: %w", err)
	}
	return &CloudinaryStore{uploader: up}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if _, err := imageExt(filename); err != nil {
		return "", err
	}
	result, err := s.uploader.Upload(ctx, r, uploader.UploadParams{
		Folder:   cloudinaryFolder,
		PublicID: uuid.New().String(),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", errors.New("cloudinary upload: " + result.Error.Message)
	}
	return result.SecureURL, nil
}

// Package storage persists uploaded recipe images and avatars and returns the
// URL they are served from.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
)

// Object key prefixes
const (
	RecipeImages = "recipes/images"
	Avatars      = "users/avatars"
)

// ErrInvalidImage is returned for payloads that are not a base64 image data URI.
var ErrInvalidImage = errors.New("invalid image payload")

// ImageStore saves decoded images.
type ImageStore interface {
	Save(ctx context.Context, prefix string, img *Image) (string, error)
	Delete(ctx context.Context, url string) error
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeDataURI parses "data:image/png;base64,...".
func DecodeDataURI(raw string) (*Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(raw), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidImage
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, known := extensions[strings.ToLower(contentType)]
	if !known {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, contentType)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

// ObjectKey returns a fresh key for an image under prefix.
func ObjectKey(prefix string, img *Image) string {
	return fmt.Sprintf("%s/%s.%s", prefix, uuid.New().String(), img.Ext)
}

// New builds the store selected by the storage backend setting.
func New(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Backend {
	case "s3":
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Store(s3cfg), nil
	case "local":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Package imagestore validates post images and uploads them to S3-compatible object storage.
package imagestore

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"civicboard/internal/models"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Image is a validated upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

var formats = map[string]struct{ contentType, ext string }{
	"jpeg": {"image/jpeg", "jpg"},
	"png":  {"image/png", "png"},
	"gif":  {"image/gif", "gif"},
	"webp": {"image/webp", "webp"},
}

// Inspect checks that data is a supported image no larger than maxBytes.
// It reads only the image header.
func Inspect(data []byte, maxBytes int64) (*Image, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("Image file is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("Image too large (max %dMB)", maxBytes/(1024*1024)))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	f, ok := formats[format]
	if !ok {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, models.NewValidationError("Invalid image dimensions")
	}

	return &Image{
		Data:        data,
		ContentType: f.contentType,
		Ext:         f.ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

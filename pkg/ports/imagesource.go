package ports

import (
	"context"
	"image"
)

// ImageSource resolves an image reference to decoded pixel data.
type ImageSource interface {
	// Load reads and decodes the image identified by ref.
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Package imagesource loads still images from the filesystem.
package imagesource

import (
	"bytes"
	"context"
	"fmt"
	"image"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
)

// Source implements ports.ImageSource on top of a ports.FileSystem.
type Source struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a new Source.
func New(fs ports.FileSystem, logger ports.Logger) *Source {
	return &Source{
		fs:     fs,
		logger: logger.WithComponent("imagesource"),
	}
}

// Load reads and decodes the image at path.
// Read and decode failures are reported as pipeline.ErrImageLoad.
func (s *Source) Load(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pipeline.ErrImageLoad, path, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pipeline.ErrImageLoad, path, err)
	}

	b := img.Bounds()
	s.logger.Debug("Decoded %s (%s, %dx%d)", path, format, b.Dx(), b.Dy())
	return img, nil
}

// Probe decodes only the header of the image at path and returns its size.
func (s *Source) Probe(path string) (pipeline.Dimension, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return pipeline.Dimension{}, fmt.Errorf("%w: %s: %v", pipeline.ErrImageLoad, path, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return pipeline.Dimension{}, fmt.Errorf("%w: %s: %v", pipeline.ErrImageLoad, path, err)
	}
	return pipeline.Dimension{Width: cfg.Width, Height: cfg.Height}, nil
}

// Ensure Source implements ports.ImageSource
var _ ports.ImageSource = (*Source)(nil)

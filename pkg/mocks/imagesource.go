package mocks

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/user/framereel/pkg/ports"
)

// ImageSource is a mock implementation of ports.ImageSource backed by a map.
type ImageSource struct {
	mu     sync.Mutex
	images map[string]image.Image

	LoadFunc func(ctx context.Context, ref string) (image.Image, error)

	// Recorded calls for verification
	LoadCalls []string
}

// NewImageSource creates an empty mock ImageSource.
func NewImageSource() *ImageSource {
	return &ImageSource{images: make(map[string]image.Image)}
}

// Add registers img under ref.
func (m *ImageSource) Add(ref string, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[ref] = img
}

// AddSolid registers a w x h image filled with c and returns ref.
func (m *ImageSource) AddSolid(ref string, w, h int, c color.NRGBA) string {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	m.Add(ref, img)
	return ref
}

func (m *ImageSource) Load(ctx context.Context, ref string) (image.Image, error) {
	m.mu.Lock()
	m.LoadCalls = append(m.LoadCalls, ref)
	img, ok := m.images[ref]
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, ref)
	}
	if !ok {
		return nil, fmt.Errorf("image not found: %s", ref)
	}
	return img, nil
}

var _ ports.ImageSource = (*ImageSource)(nil)

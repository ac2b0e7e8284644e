// Package convert writes decoded images into encoder pixel buffers.
package convert

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
)

// Converter fills ARGB32 pixel buffers from decoded images.
type Converter struct{}

// New creates a new Converter.
func New() *Converter {
	return &Converter{}
}

// Convert writes img into buf using the alpha handling of profile.
// Baseline flattens alpha over black; high-efficiency keeps straight alpha.
// buf is locked for the duration of the call and is not retained.
func (c *Converter) Convert(img image.Image, buf ports.PixelBuffer, profile pipeline.Profile) error {
	if img == nil || buf == nil {
		return fmt.Errorf("%w: nil image or buffer", pipeline.ErrPixelConversion)
	}
	if buf.Format() != ports.PixelFormatARGB32 {
		return fmt.Errorf("%w: unsupported buffer format %s", pipeline.ErrPixelConversion, buf.Format())
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w != buf.Width() || h != buf.Height() {
		return fmt.Errorf("%w: image %dx%d does not fit buffer %dx%d",
			pipeline.ErrPixelConversion, w, h, buf.Width(), buf.Height())
	}

	buf.Lock()
	defer buf.Unlock()

	dst := buf.Bytes()
	if len(dst) < buf.Stride()*(h-1)+w*4 {
		return fmt.Errorf("%w: buffer too small", pipeline.ErrPixelConversion)
	}

	straight := profile.PreservesAlpha()

	switch src := img.(type) {
	case *image.NRGBA:
		writeNRGBA(dst, buf.Stride(), src, straight)
	case *image.RGBA:
		writeRGBA(dst, buf.Stride(), src, straight)
	default:
		// Normalize everything else (YCbCr, paletted, gray, 16-bit) to NRGBA first.
		norm := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(norm, norm.Bounds(), img, bounds.Min, draw.Src)
		writeNRGBA(dst, buf.Stride(), norm, straight)
	}

	return nil
}

// writeNRGBA packs non-premultiplied pixels as ARGB.
func writeNRGBA(dst []byte, stride int, src *image.NRGBA, straight bool) {
	b := src.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		d := dst[y*stride:]
		for x := 0; x < w; x++ {
			si, di := x*4, x*4
			r, g, bl, a := s[si], s[si+1], s[si+2], s[si+3]
			if straight {
				d[di], d[di+1], d[di+2], d[di+3] = a, r, g, bl
				continue
			}
			d[di] = 0xff
			d[di+1] = premultiply(r, a)
			d[di+2] = premultiply(g, a)
			d[di+3] = premultiply(bl, a)
		}
	}
}

// writeRGBA packs premultiplied pixels as ARGB.
func writeRGBA(dst []byte, stride int, src *image.RGBA, straight bool) {
	b := src.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		d := dst[y*stride:]
		for x := 0; x < w; x++ {
			si, di := x*4, x*4
			r, g, bl, a := s[si], s[si+1], s[si+2], s[si+3]
			if !straight {
				// Premultiplied values are already composited over black.
				d[di], d[di+1], d[di+2], d[di+3] = 0xff, r, g, bl
				continue
			}
			d[di] = a
			d[di+1] = unpremultiply(r, a)
			d[di+2] = unpremultiply(g, a)
			d[di+3] = unpremultiply(bl, a)
		}
	}
}

func premultiply(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 127) / 255)
}

func unpremultiply(c, a uint8) uint8 {
	if a == 0 {
		return 0
	}
	if a == 0xff {
		return c
	}
	v := (uint32(c)*255 + uint32(a)/2) / uint32(a)
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

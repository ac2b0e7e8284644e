// Package ggrenderer draws test frames with fogleman/gg and encodes debug
// images.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"github.com/user/framereel/pkg/ports"
)

// DefaultFontSize is used when a TextStyle leaves FontSize at zero.
const DefaultFontSize = 13

// Renderer implements ports.Renderer. Text without a FontPath is set in the
// embedded Go Bold face. Faces are cached per file and size.
type Renderer struct {
	mu    sync.Mutex
	faces map[faceKey]font.Face
	bold  *opentype.Font
}

type faceKey struct {
	path string
	size float64
}

func New() *Renderer {
	return &Renderer{faces: make(map[faceKey]font.Face)}
}

// CreateCanvas creates a new drawing canvas. A nil bg leaves it transparent.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	if bg != nil {
		dc.SetColor(bg)
		dc.Clear()
	}
	return &Canvas{dc: dc, r: r}
}

// EncodeImage encodes img. JPEG quality outside 1-100 uses jpeg.DefaultQuality.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// face returns the face for style, or nil to keep gg's built-in face.
func (r *Renderer) face(style ports.TextStyle) font.Face {
	size := style.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	// Quarter-point steps keep the cache small when sizes derive from frame height.
	size = math.Round(size*4) / 4
	key := faceKey{path: style.FontPath, size: size}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f
	}

	var f font.Face
	if style.FontPath != "" {
		if loaded, err := gg.LoadFontFace(style.FontPath, size); err == nil {
			f = loaded
		}
	}
	if f == nil {
		f = r.boldFace(size)
	}
	if f != nil {
		r.faces[key] = f
	}
	return f
}

func (r *Renderer) boldFace(size float64) font.Face {
	if r.bold == nil {
		parsed, err := opentype.Parse(gobold.TTF)
		if err != nil {
			return nil
		}
		r.bold = parsed
	}
	f, err := opentype.NewFace(r.bold, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	return f
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas on a gg.Context.
type Canvas struct {
	dc *gg.Context
	r  *Renderer
}

func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

func (c *Canvas) DrawRoundedRect(x, y, w, h, radius int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRoundedRectangle(float64(x), float64(y), float64(w), float64(h), float64(radius))
	c.dc.Fill()
}

func (c *Canvas) DrawCircle(x, y, radius int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawCircle(float64(x), float64(y), float64(radius))
	c.dc.Fill()
}

// DrawText draws text vertically centred on y, anchored per style.Align.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	if f := c.r.face(style); f != nil {
		c.dc.SetFontFace(f)
	}
	c.dc.SetColor(style.Color)

	ax := 0.0
	switch style.Align {
	case ports.AlignCenter:
		ax = 0.5
	case ports.AlignRight:
		ax = 1.0
	}
	c.dc.DrawStringAnchored(text, float64(x), float64(y), ax, 0.5)
}

func (c *Canvas) DrawLine(x1, y1, x2, y2 int, col color.Color, width float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
	c.dc.Stroke()
}

func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var _ ports.Canvas = (*Canvas)(nil)

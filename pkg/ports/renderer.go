package ports

import (
	"image"
	"image/color"
)

// Renderer creates canvases for synthesized frames and encodes images for
// debug output.
type Renderer interface {
	// CreateCanvas returns a width x height canvas filled with bg.
	// A nil bg leaves the canvas transparent.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes img. quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)
}

// Canvas is a drawing surface. Coordinates are pixels from the top left.
type Canvas interface {
	DrawRect(x, y, w, h int, c color.Color)
	DrawRoundedRect(x, y, w, h, radius int, c color.Color)
	// DrawCircle draws a filled circle centred at (x, y).
	DrawCircle(x, y, radius int, c color.Color)
	// DrawText draws text vertically centred on y.
	DrawText(text string, x, y int, style TextStyle)
	DrawLine(x1, y1, x2, y2 int, c color.Color, width float64)
	ToImage() image.Image
}

// TextStyle describes how DrawText sets a string. An empty FontPath selects
// the renderer's built-in face.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign anchors text horizontally on the x coordinate.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// ImageFormat selects the encoding used by EncodeImage.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

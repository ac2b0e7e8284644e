package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framereel/pkg/ports"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 100, color.White)
	require.NotNil(t, canvas)

	bounds := canvas.ToImage().Bounds()
	assert.Equal(t, 100, bounds.Dx())
	assert.Equal(t, 100, bounds.Dy())
}

func TestRenderer_EncodeJPEG(t *testing.T) {
	r := New()

	// Create test image
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	// Encode
	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	require.NoError(t, err, "EncodeImage failed")
	assert.NotEmpty(t, data)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err, "decode failed")
	assert.Equal(t, image.Rect(0, 0, 50, 50), decoded.Bounds())
}

func TestRenderer_EncodePNG(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))

	// Encode
	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	require.NoError(t, err, "EncodeImage failed")

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err, "decode failed")
	assert.Equal(t, image.Rect(0, 0, 30, 30), decoded.Bounds())
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	// Draw red rectangle
	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	// Check that pixel inside rectangle is red
	red, _, _, _ := canvas.ToImage().At(20, 20).RGBA()
	assert.NotZero(t, red, "expected red pixel inside rectangle")
}

func TestCanvas_DrawLine(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	// Draw black line
	canvas.DrawLine(0, 50, 100, 50, color.Black, 2)

	// Should be dark (not white)
	r1, g1, b1, _ := canvas.ToImage().At(50, 50).RGBA()
	assert.False(t, r1 == 65535 && g1 == 65535 && b1 == 65535, "expected non-white pixel on line")
}

// inkWidth returns the horizontal extent of non-white pixels.
func inkWidth(img image.Image) int {
	b := img.Bounds()
	minX, maxX := b.Max.X, b.Min.X-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, g, bl, _ := img.At(x, y).RGBA(); r < 0x8000 && g < 0x8000 && bl < 0x8000 {
				minX = min(minX, x)
				maxX = max(maxX, x)
			}
		}
	}
	return maxX - minX + 1
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	draw := func(size float64) image.Image {
		canvas := r.CreateCanvas(400, 100, color.White)
		canvas.DrawText("12 / 30", 200, 50, ports.TextStyle{
			FontSize: size,
			Color:    color.Black,
			Align:    ports.AlignCenter,
		})
		return canvas.ToImage()
	}

	small := inkWidth(draw(12))
	large := inkWidth(draw(36))
	require.Positive(t, small, "expected text to be drawn")
	assert.GreaterOrEqual(t, large, 2*small, "font size ignored")
}

func TestRenderer_FaceCache(t *testing.T) {
	r := New()
	a := r.face(ports.TextStyle{FontSize: 20})
	b := r.face(ports.TextStyle{FontSize: 20.1})
	require.NotNil(t, a)
	assert.Same(t, a, b, "sizes within a quarter point share a face")
	assert.NotSame(t, a, r.face(ports.TextStyle{FontSize: 0}), "default size uses its own face")
	// A missing font file falls back to the embedded face.
	assert.NotNil(t, r.face(ports.TextStyle{FontSize: 20, FontPath: "/nonexistent.ttf"}))
}

func TestRenderer_JPEGQualityClamp(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for _, q := range []int{0, -5, 101} {
		_, err := r.EncodeImage(img, ports.FormatJPEG, q)
		assert.NoError(t, err, "quality %d", q)
	}
	_, err := r.EncodeImage(img, ports.ImageFormat(99), 0)
	assert.Error(t, err, "unknown format")
}

func TestCanvas_DrawCircle(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawCircle(50, 50, 20, color.RGBA{B: 255, A: 255})

	img := canvas.ToImage()

	// Centre is blue, corner untouched
	_, _, b, _ := img.At(50, 50).RGBA()
	assert.NotZero(t, b, "expected blue pixel at circle centre")
	rr, g, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, []uint32{65535, 65535, 65535}, []uint32{rr, g, b}, "expected white pixel outside circle")
}

func TestRenderer_TransparentCanvas(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(10, 10, nil)

	_, _, _, a := canvas.ToImage().At(5, 5).RGBA()
	assert.Zero(t, a, "expected transparent pixel")
}

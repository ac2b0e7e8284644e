package pixelpool

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framereel/pkg/ports"
)

func TestToNRGBA(t *testing.T) {
	pool, err := New(ports.PixelFormatARGB32, 2, 1, 1)
	require.NoError(t, err)
	buf, _ := pool.Acquire()
	defer buf.Release()

	copy(buf.Bytes(), []byte{128, 10, 20, 30, 255, 40, 50, 60})

	img, err := ToNRGBA(buf)
	require.NoError(t, err, "ToNRGBA failed")
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 128}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 40, G: 50, B: 60, A: 255}, img.NRGBAAt(1, 0))
}

func TestEncodeJPEG(t *testing.T) {
	pool, err := New(ports.PixelFormatARGB32, 16, 8, 1)
	require.NoError(t, err)
	buf, _ := pool.Acquire()
	defer buf.Release()

	data, err := EncodeJPEG(buf, 0)
	require.NoError(t, err, "EncodeJPEG failed")

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err, "output is not a JPEG")
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

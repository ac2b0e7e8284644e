package pixelpool

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/user/framereel/pkg/ports"
)

// ToNRGBA copies an ARGB32 buffer into a new non-premultiplied image.
// The buffer is locked for the duration of the copy.
func ToNRGBA(buf ports.PixelBuffer) (*image.NRGBA, error) {
	if buf.Format() != ports.PixelFormatARGB32 {
		return nil, fmt.Errorf("pixelpool: cannot convert %s buffer", buf.Format())
	}

	buf.Lock()
	defer buf.Unlock()

	w, h := buf.Width(), buf.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	src := buf.Bytes()
	for y := 0; y < h; y++ {
		s := src[y*buf.Stride() : y*buf.Stride()+w*4]
		d := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			d[x+0] = s[x+1]
			d[x+1] = s[x+2]
			d[x+2] = s[x+3]
			d[x+3] = s[x+0]
		}
	}
	return img, nil
}

// DefaultJPEGQuality is used when EncodeJPEG is given a quality outside 1-100.
const DefaultJPEGQuality = 90

// EncodeJPEG encodes the buffer as a baseline JPEG. Alpha is discarded.
func EncodeJPEG(buf ports.PixelBuffer, quality int) ([]byte, error) {
	img, err := ToNRGBA(buf)
	if err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("pixelpool: encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

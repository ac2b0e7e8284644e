// Package avibackend provides an encoder backend that writes Motion JPEG AVI files.
package avibackend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/icza/mjpeg"

	"github.com/user/framereel/pkg/adapters/framequeue"
	"github.com/user/framereel/pkg/adapters/pixelpool"
	"github.com/user/framereel/pkg/ports"
)

// Name is the backend identifier.
const Name = "avi"

// ErrUnsupportedCodec is returned when a session asks for a codec this backend cannot write.
var ErrUnsupportedCodec = errors.New("avibackend: codec not supported")

// Options configures the backend.
type Options struct {
	Quality    int // JPEG quality 1-100 (default: 90)
	QueueDepth int
}

// Backend implements ports.EncoderBackend.
type Backend struct {
	opts   Options
	logger ports.Logger
}

// New creates a new avi backend.
func New(opts Options, logger ports.Logger) *Backend {
	return &Backend{
		opts:   opts,
		logger: logger.WithComponent("avi"),
	}
}

func (b *Backend) Name() string      { return Name }
func (b *Backend) Extension() string { return ".avi" }

// Supports reports whether codec can be written. Motion JPEG carries no
// alpha, so only the baseline codec is accepted and written as MJPEG.
func (b *Backend) Supports(codec ports.Codec) bool {
	return codec == ports.CodecH264 || codec == ports.CodecMJPEG
}

// OutputCodec returns ports.CodecMJPEG for every supported codec.
func (b *Backend) OutputCodec(requested ports.Codec) ports.Codec {
	if b.Supports(requested) {
		return ports.CodecMJPEG
	}
	return requested
}

// Open creates the AVI file and returns a session writing into it.
func (b *Backend) Open(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !b.Supports(settings.Codec) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, settings.Codec)
	}

	if dir := filepath.Dir(settings.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	aw, err := mjpeg.New(settings.OutputPath, int32(settings.Width), int32(settings.Height), int32(settings.FrameRate))
	if err != nil {
		return nil, fmt.Errorf("create avi: %w", err)
	}

	quality := b.opts.Quality
	if quality <= 0 {
		quality = settings.Quality
	}

	b.logger.Debug("Opened %s (%dx%d, %d fps)", settings.OutputPath, settings.Width, settings.Height, settings.FrameRate)

	w := &writer{aw: aw, quality: quality}
	return framequeue.New(Name, settings, w, framequeue.Options{Depth: b.opts.QueueDepth}), nil
}

type writer struct {
	aw      mjpeg.AviWriter
	quality int
	frames  int
	closed  bool
}

func (w *writer) WriteFrame(buf ports.PixelBuffer, pts ports.PresentationTime) error {
	if w.closed {
		return fmt.Errorf("avibackend: writer closed")
	}
	data, err := pixelpool.EncodeJPEG(buf, w.quality)
	if err != nil {
		return err
	}
	if err := w.aw.AddFrame(data); err != nil {
		return fmt.Errorf("add frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.aw.Close()
}

// Abort closes the writer so the frames already written stay readable.
func (w *writer) Abort() error {
	return w.Close()
}

// Ensure Backend implements ports.EncoderBackend
var (
	_ ports.EncoderBackend   = (*Backend)(nil)
	_ ports.CodecSubstituter = (*Backend)(nil)
)

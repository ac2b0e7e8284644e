// Package mp4backend provides a pure Go encoder backend that writes
// Motion JPEG samples into a fragmented MP4 container.
// It needs no external tools and serves as the fallback for the
// baseline profile.
package mp4backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/framereel/pkg/adapters/framequeue"
	"github.com/user/framereel/pkg/ports"
)

// Name is the backend identifier.
const Name = "mp4"

// Options configures the backend.
type Options struct {
	FragmentFrames int // Frames per movie fragment (default: one second of video)
	Quality        int // JPEG quality 1-100 (default: 90)
	QueueDepth     int // Frames buffered ahead of the writer (default: framequeue.DefaultDepth)
}

// Backend implements ports.EncoderBackend.
type Backend struct {
	opts   Options
	logger ports.Logger
}

// New creates a new mp4 backend.
func New(opts Options, logger ports.Logger) *Backend {
	return &Backend{
		opts:   opts,
		logger: logger.WithComponent("mp4"),
	}
}

func (b *Backend) Name() string      { return Name }
func (b *Backend) Extension() string { return ".mp4" }

// Supports reports whether codec can be written. The baseline codec is
// accepted and written as Motion JPEG, which has no alpha channel.
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

// Open creates the output file, writes the init segment and returns a
// session that appends fragments as frames arrive.
func (b *Backend) Open(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !b.Supports(settings.Codec) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, settings.Codec)
	}
	if settings.Width <= 0 || settings.Height <= 0 || settings.Width > 0xffff || settings.Height > 0xffff {
		return nil, fmt.Errorf("mp4backend: invalid size %dx%d", settings.Width, settings.Height)
	}
	if settings.FrameRate <= 0 {
		return nil, fmt.Errorf("mp4backend: invalid frame rate %d", settings.FrameRate)
	}

	if dir := filepath.Dir(settings.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(settings.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	fragmentFrames := b.opts.FragmentFrames
	if fragmentFrames <= 0 {
		fragmentFrames = settings.FrameRate
	}
	quality := b.opts.Quality
	if quality <= 0 {
		quality = settings.Quality
	}

	w := newWriter(f, settings, fragmentFrames, quality)
	if err := w.writeInit(); err != nil {
		f.Close()
		return nil, err
	}

	b.logger.Debug("Opened %s (%dx%d, %d fps, %d frames per fragment)",
		settings.OutputPath, settings.Width, settings.Height, settings.FrameRate, fragmentFrames)

	return framequeue.New(Name, settings, w, framequeue.Options{Depth: b.opts.QueueDepth}), nil
}

// Ensure Backend implements ports.EncoderBackend
var (
	_ ports.EncoderBackend   = (*Backend)(nil)
	_ ports.CodecSubstituter = (*Backend)(nil)
)

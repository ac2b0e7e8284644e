// Package ffmpegbackend provides an encoder backend that drives an external
// ffmpeg process. Frames are streamed to its stdin as raw ARGB.
package ffmpegbackend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/user/framereel/pkg/adapters/framequeue"
	"github.com/user/framereel/pkg/ports"
)

// Name is the backend identifier.
const Name = "ffmpeg"

// Options configures the backend.
type Options struct {
	FFmpegPath string // Optional custom path to the ffmpeg binary
	Preset     string // x264/x265 preset (default: fast)
	QueueDepth int
}

// Backend implements ports.EncoderBackend.
type Backend struct {
	opts   Options
	logger ports.Logger
	goos   string
}

// New creates a new ffmpeg backend.
func New(opts Options, logger ports.Logger) *Backend {
	if opts.FFmpegPath != "" {
		SetFFmpegPath(opts.FFmpegPath)
	}
	return &Backend{
		opts:   opts,
		logger: logger.WithComponent("ffmpeg"),
		goos:   runtime.GOOS,
	}
}

func (b *Backend) Name() string      { return Name }
func (b *Backend) Extension() string { return ".mov" }

// Supports reports whether codec has an ffmpeg encoder mapping.
func (b *Backend) Supports(codec ports.Codec) bool {
	return codec == ports.CodecH264 || codec == ports.CodecHEVCAlpha
}

// Open starts ffmpeg writing to settings.OutputPath.
func (b *Backend) Open(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if settings.SourceFormat != 0 && settings.SourceFormat != ports.PixelFormatARGB32 {
		return nil, fmt.Errorf("ffmpegbackend: unsupported source format %s", settings.SourceFormat)
	}

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}

	args, err := buildArgs(settings, b.goos, b.opts.Preset)
	if err != nil {
		return nil, err
	}
	if settings.Codec == ports.CodecHEVCAlpha && settings.PreserveAlpha && b.goos != "darwin" {
		b.logger.Warn("Alpha channel is not preserved by libx265")
	}

	if dir := filepath.Dir(settings.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	cmd := exec.Command(ffmpegPath, args...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	b.logger.Debug("Started %s for %s (%s, %dx%d, %d fps)",
		ffmpegPath, settings.OutputPath, settings.Codec, settings.Width, settings.Height, settings.FrameRate)

	w := &writer{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
		width:  settings.Width,
	}
	return framequeue.New(Name, settings, w, framequeue.Options{Depth: b.opts.QueueDepth}), nil
}

// Ensure Backend implements ports.EncoderBackend
var _ ports.EncoderBackend = (*Backend)(nil)

// Package backendselect picks an encoder backend for a codec, falling back
// to the pure Go muxer when ffmpeg is not installed.
package backendselect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/framereel/pkg/adapters/avibackend"
	"github.com/user/framereel/pkg/adapters/ffmpegbackend"
	"github.com/user/framereel/pkg/adapters/logger"
	"github.com/user/framereel/pkg/adapters/mp4backend"
	"github.com/user/framereel/pkg/ports"
)

// Kind names a backend choice.
type Kind string

const (
	// KindAuto prefers ffmpeg and falls back to mp4 for the baseline codec.
	KindAuto   Kind = "auto"
	KindFFmpeg Kind = "ffmpeg"
	KindMP4    Kind = "mp4"
	KindAVI    Kind = "avi"
)

// ParseKind parses a backend name. An empty name selects KindAuto.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindFFmpeg, KindMP4, KindAVI:
		return k, nil
	default:
		return "", fmt.Errorf("backendselect: unknown backend %q", s)
	}
}

// Info contains information about the selected backend.
type Info struct {
	// Backend is the name of the selected backend.
	Backend string
	// Requested is the kind that was asked for.
	Requested Kind
	// FallbackUsed indicates whether a fallback occurred.
	FallbackUsed bool
	// Codec is the codec the profile asked for.
	Codec ports.Codec
	// OutputCodec is the codec the backend writes. It differs from Codec
	// when a pure Go backend substitutes Motion JPEG for H.264.
	OutputCodec ports.Codec
}

// Substituted reports whether the backend writes a different codec than requested.
func (i Info) Substituted() bool {
	return i.OutputCodec != "" && i.OutputCodec != i.Codec
}

// Options configures backend selection.
type Options struct {
	Kind        Kind
	FFmpegPath  string
	Preset      string
	JPEGQuality int
	QueueDepth  int
	// Logger is used to log fallback warnings.
	Logger ports.Logger
}

var (
	// ErrNoBackendAvailable is returned when no backend can produce the codec.
	ErrNoBackendAvailable = errors.New("backendselect: no backend available")
)

// ffmpegAvailable is replaced in tests.
var ffmpegAvailable = ffmpegbackend.IsAvailable

// New returns a backend able to write codec.
//
// The selection flow for KindAuto:
//  1. Use ffmpeg when it can be found
//  2. For the baseline codec, fall back to the pure Go mp4 muxer
//
// The high-efficiency codec always requires ffmpeg.
func New(codec ports.Codec, opts Options) (ports.EncoderBackend, Info, error) {
	if opts.Kind == "" {
		opts.Kind = KindAuto
	}
	if opts.FFmpegPath != "" {
		ffmpegbackend.SetFFmpegPath(opts.FFmpegPath)
	}

	info := Info{Requested: opts.Kind, Codec: codec}

	switch opts.Kind {
	case KindFFmpeg:
		if !ffmpegAvailable() {
			return nil, info, fmt.Errorf("%w: ffmpeg not found", ErrNoBackendAvailable)
		}
		return withInfo(newFFmpeg(opts), info, false)

	case KindMP4:
		return checked(newMP4(opts), codec, info)

	case KindAVI:
		return checked(newAVI(opts), codec, info)

	case KindAuto:
		if ffmpegAvailable() {
			return withInfo(newFFmpeg(opts), info, false)
		}

		fallback := newMP4(opts)
		if !fallback.Supports(codec) {
			return nil, info, fmt.Errorf("%w: %s requires ffmpeg", ErrNoBackendAvailable, codec)
		}
		if opts.Logger != nil {
			opts.Logger.Warn("ffmpeg not available, falling back to %s (%s written as %s)",
				fallback.Name(), codec, ports.OutputCodec(fallback, codec))
		}
		return withInfo(fallback, info, true)

	default:
		return nil, info, fmt.Errorf("backendselect: unknown backend %q", opts.Kind)
	}
}

func checked(b ports.EncoderBackend, codec ports.Codec, info Info) (ports.EncoderBackend, Info, error) {
	if !b.Supports(codec) {
		return nil, info, fmt.Errorf("%w: %s cannot write %s", ErrNoBackendAvailable, b.Name(), codec)
	}
	return withInfo(b, info, false)
}

func withInfo(b ports.EncoderBackend, info Info, fallback bool) (ports.EncoderBackend, Info, error) {
	info.Backend = b.Name()
	info.FallbackUsed = fallback
	info.OutputCodec = ports.OutputCodec(b, info.Codec)
	return b, info, nil
}

func loggerOf(opts Options) ports.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return logger.NewNoop()
}

func newFFmpeg(opts Options) ports.EncoderBackend {
	return ffmpegbackend.New(ffmpegbackend.Options{
		Preset:     opts.Preset,
		QueueDepth: opts.QueueDepth,
	}, loggerOf(opts))
}

func newMP4(opts Options) ports.EncoderBackend {
	return mp4backend.New(mp4backend.Options{
		Quality:    opts.JPEGQuality,
		QueueDepth: opts.QueueDepth,
	}, loggerOf(opts))
}

func newAVI(opts Options) ports.EncoderBackend {
	return avibackend.New(avibackend.Options{
		Quality:    opts.JPEGQuality,
		QueueDepth: opts.QueueDepth,
	}, loggerOf(opts))
}

// IsFFmpegAvailable checks if the ffmpeg backend can be used.
func IsFFmpegAvailable() bool {
	return ffmpegAvailable()
}

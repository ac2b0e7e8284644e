package ffmpegbackend

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegbackend: ffmpeg not found in PATH")

	// ErrUnsupportedCodec is returned for codecs without an ffmpeg encoder mapping.
	ErrUnsupportedCodec = errors.New("ffmpegbackend: codec not supported")

	// ErrWriterClosed is returned when frames are written after the pipe was closed.
	ErrWriterClosed = errors.New("ffmpegbackend: writer closed")
)

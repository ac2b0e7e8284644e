package mp4backend

import "errors"

var (
	// ErrUnsupportedCodec is returned when a session asks for a codec this backend cannot write.
	ErrUnsupportedCodec = errors.New("mp4backend: codec not supported")

	// ErrClosed is returned when frames are written after the container was closed.
	ErrClosed = errors.New("mp4backend: container already closed")
)

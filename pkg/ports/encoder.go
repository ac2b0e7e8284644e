// Package ports defines interfaces for the encoder backend and other external dependencies.
package ports

import (
	"context"
	"fmt"
)

// Codec identifies the compressed video format a backend produces.
type Codec string

const (
	// CodecH264 is H.264/AVC, the baseline profile.
	CodecH264 Codec = "h264"
	// CodecHEVCAlpha is HEVC with a straight alpha channel, the high-efficiency profile.
	CodecHEVCAlpha Codec = "hevc"
	// CodecMJPEG is Motion JPEG. Pure Go backends write it in place of H.264.
	CodecMJPEG Codec = "mjpeg"
)

// CodecSubstituter is implemented by backends that accept a codec but
// write a different one.
type CodecSubstituter interface {
	// OutputCodec returns the codec actually written for a requested codec.
	OutputCodec(requested Codec) Codec
}

// OutputCodec returns the codec b writes when asked for requested.
func OutputCodec(b EncoderBackend, requested Codec) Codec {
	if cs, ok := b.(CodecSubstituter); ok {
		return cs.OutputCodec(requested)
	}
	return requested
}

// SessionSettings configures an encoder session.
type SessionSettings struct {
	OutputPath   string
	Codec        Codec
	Width        int
	Height       int
	FrameRate    int
	SourceFormat PixelFormat

	AverageBitRate      int  // Target bitrate in bits/sec (0 = backend default)
	MaxKeyFrameInterval int  // Max distance between keyframes in frames (0 = backend default)
	PreserveAlpha       bool // Keep straight alpha in the encoded stream
	Quality             int  // Backend specific quality hint, 1-100 (0 = backend default)
}

// SessionStatus is the lifecycle state of an encoder session.
type SessionStatus int

const (
	SessionOpened SessionStatus = iota
	SessionWriting
	SessionFinalizing
	SessionCompleted
	SessionFailed
	SessionCancelled
)

// String returns the string representation of the session status.
func (s SessionStatus) String() string {
	switch s {
	case SessionOpened:
		return "opened"
	case SessionWriting:
		return "writing"
	case SessionFinalizing:
		return "finalizing"
	case SessionCompleted:
		return "completed"
	case SessionFailed:
		return "failed"
	case SessionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionCancelled
}

// EncoderBackend abstracts the platform video writer.
type EncoderBackend interface {
	// Name returns a short identifier for the backend (e.g. "ffmpeg").
	Name() string

	// Extension returns the container file extension including the dot.
	Extension() string

	// Supports reports whether the backend can produce the given codec.
	Supports(codec Codec) bool

	// Open creates the output container and a writer session for it.
	// The returned session is in the SessionOpened state.
	Open(ctx context.Context, settings SessionSettings) (EncoderSession, error)
}

// EncoderSession is one open output container accepting pixel buffers.
type EncoderSession interface {
	// StartWriting moves the session from opened to writing.
	StartWriting() error

	// PixelBufferPool returns the pool buffers must be drawn from.
	// It returns nil until writing has started.
	PixelBufferPool() PixelBufferPool

	// IsReadyForMoreData reports whether Append may be called without
	// exceeding the backend's internal buffering.
	IsReadyForMoreData() bool

	// Append submits a buffer for presentation at pts.
	// The session retains the buffer if it needs it after returning.
	Append(buf PixelBuffer, pts PresentationTime) error

	// MarkAsFinished signals that no more buffers will be appended.
	MarkAsFinished()

	// FinishWriting finalizes the container and blocks until done.
	FinishWriting(ctx context.Context) error

	// Cancel abandons the session without finalizing the container.
	Cancel() error

	// Status returns the current lifecycle state.
	Status() SessionStatus

	// Err returns the failure that moved the session to SessionFailed.
	Err() error
}

// ReadyNotifier is optionally implemented by sessions that can signal
// readiness instead of being polled.
type ReadyNotifier interface {
	// ReadyChan receives a value whenever the session may have become ready.
	ReadyChan() <-chan struct{}
}

// BackendError carries a backend status code for a failed operation.
type BackendError struct {
	Backend string
	Op      string
	Status  int
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s failed with status %d: %v", e.Backend, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s failed with status %d", e.Backend, e.Op, e.Status)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

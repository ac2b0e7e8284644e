package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned when a build is requested while another is in flight.
	ErrAlreadyRunning = errors.New("framereel: a video is already being built")

	// ErrEmptyImageList is returned when a build has no source images.
	ErrEmptyImageList = errors.New("framereel: image list is empty")

	// ErrInvalidFrameRate is returned when the frame rate is outside [1, 60].
	ErrInvalidFrameRate = errors.New("framereel: framerate must be between 1 and 60")

	// ErrWidthNotAligned is returned when the first image width is not a multiple of 16.
	ErrWidthNotAligned = errors.New("framereel: image width must be divisible by 16")

	// ErrImageLoad is returned when an image cannot be read or decoded.
	ErrImageLoad = errors.New("framereel: failed to load image")

	// ErrDimensionsMismatch is returned when a frame differs in size from the first image.
	ErrDimensionsMismatch = errors.New("framereel: image dimensions do not match")

	// ErrPixelConversion is returned when an image cannot be written into a pixel buffer.
	ErrPixelConversion = errors.New("framereel: pixel conversion failed")

	// ErrPixelBufferUnavailable is returned when the session pool is unset or exhausted.
	ErrPixelBufferUnavailable = errors.New("framereel: pixel buffer unavailable")

	// ErrSessionOpen is returned when the encoder backend cannot create the writer.
	ErrSessionOpen = errors.New("framereel: failed to open encoder session")

	// ErrAppendFailed is returned when the backend rejects a submitted buffer.
	ErrAppendFailed = errors.New("framereel: failed to append pixel buffer")

	// ErrFinalize is returned when the backend cannot finalize the container.
	ErrFinalize = errors.New("framereel: failed to finalize video")

	// ErrUnsupportedFormat is returned for unknown output formats.
	ErrUnsupportedFormat = errors.New("framereel: unsupported output format")
)

// ErrorCode is the stable code reported to the caller with a failure.
type ErrorCode string

const (
	CodeAlreadyRunning   ErrorCode = "ALREADY_RUNNING"
	CodeFailedLoadImage  ErrorCode = "FAILED_LOAD_IMAGE"
	CodeBuildVideoFailed ErrorCode = "BUILD_VIDEO_FAILED"
)

// BuildError is a failure with a stable code and a human-readable message.
type BuildError struct {
	Code ErrorCode
	Err  error
}

// NewBuildError wraps err with code.
func NewBuildError(code ErrorCode, err error) *BuildError {
	return &BuildError{Code: code, Err: err}
}

// AsBuildError returns err as a BuildError, wrapping it with code if it is not one already.
func AsBuildError(err error, code ErrorCode) *BuildError {
	if err == nil {
		return nil
	}
	var be *BuildError
	if errors.As(err, &be) {
		return be
	}
	return NewBuildError(code, err)
}

func (e *BuildError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return e.Err.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// String formats the error the way the CLI reports it.
func (e *BuildError) String() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Error())
}

package ffmpegbackend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/user/framereel/pkg/ports"
)

// writer pipes raw frames into a running ffmpeg process.
type writer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *lockedBuffer
	width  int
	frames int
	closed bool
}

func (w *writer) WriteFrame(buf ports.PixelBuffer, pts ports.PresentationTime) error {
	if w.closed {
		return ErrWriterClosed
	}

	buf.Lock()
	defer buf.Unlock()

	pix := buf.Bytes()
	rowBytes := w.width * 4
	if buf.Stride() == rowBytes {
		if _, err := w.stdin.Write(pix[:rowBytes*buf.Height()]); err != nil {
			return w.pipeError(err)
		}
	} else {
		for y := 0; y < buf.Height(); y++ {
			off := y * buf.Stride()
			if _, err := w.stdin.Write(pix[off : off+rowBytes]); err != nil {
				return w.pipeError(err)
			}
		}
	}

	w.frames++
	return nil
}

func (w *writer) pipeError(err error) error {
	return fmt.Errorf("failed to write frame %d: %w%s", w.frames, err, w.stderrTail())
}

// Close ends the input stream and waits for ffmpeg to write the container.
func (w *writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	var result error
	if err := w.stdin.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close stdin: %w", err))
	}
	if err := w.cmd.Wait(); err != nil {
		status := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		}
		result = multierror.Append(result, &ports.BackendError{
			Backend: Name,
			Op:      "finish",
			Status:  status,
			Err:     fmt.Errorf("ffmpeg encoding failed: %w%s", err, w.stderrTail()),
		})
	}
	return result
}

// Abort kills ffmpeg. Whatever it wrote so far stays on disk.
func (w *writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var result error
	if err := w.stdin.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if w.cmd.Process != nil {
		if err := w.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			result = multierror.Append(result, err)
		}
	}
	// The exit status of a killed process is expected.
	_ = w.cmd.Wait()
	return result
}

func (w *writer) stderrTail() string {
	s := strings.TrimSpace(w.stderr.String())
	if s == "" {
		return ""
	}
	if len(s) > 2048 {
		s = s[len(s)-2048:]
	}
	return "\nstderr: " + s
}

// lockedBuffer collects ffmpeg's stderr while frames are still being written.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

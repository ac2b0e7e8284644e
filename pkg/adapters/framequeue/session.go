// Package framequeue provides an encoder session that queues appended
// pixel buffers and writes them on a background goroutine.
// Backends supply a FrameWriter and get buffering, readiness reporting
// and lifecycle handling from Session.
package framequeue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/user/framereel/pkg/adapters/pixelpool"
	"github.com/user/framereel/pkg/ports"
)

// Backend status codes carried in ports.BackendError.
const (
	StatusWriteFailed  = 1
	StatusNotWriting   = 2
	StatusOutOfOrder   = 3
	StatusFinishFailed = 4
)

// DefaultDepth is the number of frames that may wait for the writer.
const DefaultDepth = 2

var (
	// ErrNotWriting is returned when buffers are appended outside the writing state.
	ErrNotWriting = errors.New("framequeue: session is not writing")

	// ErrOutOfOrder is returned when a presentation time does not increase.
	ErrOutOfOrder = errors.New("framequeue: presentation time out of order")
)

// FrameWriter writes frames into a container. Calls are made from a single
// goroutine. WriteFrame must lock buf while reading its pixels.
type FrameWriter interface {
	WriteFrame(buf ports.PixelBuffer, pts ports.PresentationTime) error
	// Close finalizes the container.
	Close() error
	// Abort stops writing without finalizing.
	Abort() error
}

// Options configures a Session.
type Options struct {
	Depth int // Queued frames before readiness drops (default: 2)
}

type item struct {
	buf ports.PixelBuffer
	pts ports.PresentationTime
}

// Session implements ports.EncoderSession on top of a FrameWriter.
type Session struct {
	backend  string
	settings ports.SessionSettings
	writer   FrameWriter
	depth    int

	mu      sync.Mutex
	status  ports.SessionStatus
	err     error
	pool    *pixelpool.Pool
	lastPTS *ports.PresentationTime

	sendMu   sync.Mutex
	finished bool

	queue    chan item
	ready    chan struct{}
	done     chan struct{}
	pending  atomic.Int32
	failed   atomic.Bool
	markOnce sync.Once
	stopOnce sync.Once
}

// New creates a session in the opened state.
func New(backend string, settings ports.SessionSettings, writer FrameWriter, opts Options) *Session {
	depth := opts.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Session{
		backend:  backend,
		settings: settings,
		writer:   writer,
		depth:    depth,
		status:   ports.SessionOpened,
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// StartWriting allocates the buffer pool and starts the writer goroutine.
func (s *Session) StartWriting() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != ports.SessionOpened || s.finished {
		return s.backendError("start", StatusNotWriting, ErrNotWriting)
	}

	format := s.settings.SourceFormat
	if format == 0 {
		format = ports.PixelFormatARGB32
	}
	// Queued frames plus the one held by the caller.
	pool, err := pixelpool.New(format, s.settings.Width, s.settings.Height, s.depth+1)
	if err != nil {
		s.status = ports.SessionFailed
		s.err = err
		return s.backendError("start", StatusNotWriting, err)
	}

	s.pool = pool
	s.queue = make(chan item, s.depth)
	s.status = ports.SessionWriting
	go s.run()
	return nil
}

func (s *Session) run() {
	defer close(s.done)

	for it := range s.queue {
		if !s.failed.Load() {
			if err := s.writer.WriteFrame(it.buf, it.pts); err != nil {
				s.fail(s.backendError("write", StatusWriteFailed, err))
			}
		}
		it.buf.Release()
		s.pending.Add(-1)
		s.notify()
	}
}

func (s *Session) notify() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// PixelBufferPool returns the session pool, or nil before writing starts.
func (s *Session) PixelBufferPool() ports.PixelBufferPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return nil
	}
	return s.pool
}

// IsReadyForMoreData reports whether the queue has room.
func (s *Session) IsReadyForMoreData() bool {
	s.mu.Lock()
	writing := s.status == ports.SessionWriting
	s.mu.Unlock()
	return writing && !s.failed.Load() && int(s.pending.Load()) < s.depth
}

// ReadyChan fires after the writer drains a frame.
func (s *Session) ReadyChan() <-chan struct{} {
	return s.ready
}

// Append retains buf and queues it for writing at pts.
func (s *Session) Append(buf ports.PixelBuffer, pts ports.PresentationTime) error {
	s.mu.Lock()
	if s.status != ports.SessionWriting || s.failed.Load() {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			return err
		}
		return s.backendError("append", StatusNotWriting, ErrNotWriting)
	}
	if s.lastPTS != nil && pts.Compare(*s.lastPTS) <= 0 {
		s.mu.Unlock()
		return s.backendError("append", StatusOutOfOrder,
			fmt.Errorf("%w: %s after %s", ErrOutOfOrder, pts, *s.lastPTS))
	}
	s.lastPTS = &pts
	s.mu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.finished {
		return s.backendError("append", StatusNotWriting, ErrNotWriting)
	}

	buf.Retain()
	s.pending.Add(1)
	s.queue <- item{buf: buf, pts: pts}
	return nil
}

// MarkAsFinished closes the queue. Frames already queued are still written.
func (s *Session) MarkAsFinished() {
	s.markOnce.Do(func() {
		s.sendMu.Lock()
		defer s.sendMu.Unlock()

		s.mu.Lock()
		s.finished = true
		q := s.queue
		s.mu.Unlock()
		if q != nil {
			close(q)
		} else {
			close(s.done)
		}
	})
}

// FinishWriting drains the queue and finalizes the container.
// If ctx ends before the queue drains, the session is abandoned: queued
// frames are discarded and the writer is aborted once it goes idle.
func (s *Session) FinishWriting(ctx context.Context) error {
	s.MarkAsFinished()

	select {
	case <-s.done:
	case <-ctx.Done():
		s.abandon()
		return ctx.Err()
	}

	s.mu.Lock()
	if s.status != ports.SessionWriting || s.failed.Load() {
		err := s.err
		s.mu.Unlock()
		if err == nil {
			err = s.backendError("finish", StatusNotWriting, ErrNotWriting)
		}
		if stopErr := s.stop(true); stopErr != nil {
			err = multierror.Append(err, stopErr)
		}
		return err
	}
	s.status = ports.SessionFinalizing
	s.mu.Unlock()

	if err := s.writer.Close(); err != nil {
		berr := s.backendError("finish", StatusFinishFailed, err)
		s.fail(berr)
		s.stop(false)
		return berr
	}

	s.mu.Lock()
	s.status = ports.SessionCompleted
	s.mu.Unlock()
	s.stop(false)
	return nil
}

// Cancel abandons the session. Queued frames are discarded.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.status.Terminal() && s.status != ports.SessionFailed {
		s.mu.Unlock()
		return nil
	}
	if s.status != ports.SessionFailed {
		s.status = ports.SessionCancelled
	}
	s.mu.Unlock()

	s.failed.Store(true)
	s.MarkAsFinished()
	<-s.done
	return s.stop(true)
}

// abandon marks the session cancelled and aborts the writer after the
// writer goroutine exits, without waiting for it.
func (s *Session) abandon() {
	s.mu.Lock()
	if !s.status.Terminal() {
		s.status = ports.SessionCancelled
	}
	s.mu.Unlock()

	s.failed.Store(true)
	go func() {
		<-s.done
		_ = s.stop(true)
	}()
}

// stop releases session resources once.
func (s *Session) stop(abort bool) error {
	var result error
	s.stopOnce.Do(func() {
		if abort {
			if err := s.writer.Abort(); err != nil {
				result = multierror.Append(result, s.backendError("cancel", StatusWriteFailed, err))
			}
		}
		s.mu.Lock()
		if s.pool != nil {
			s.pool.Close()
		}
		s.mu.Unlock()
	})
	return result
}

// Status returns the current lifecycle state.
func (s *Session) Status() ports.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the failure that moved the session to the failed state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) fail(err error) {
	s.failed.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
	s.status = ports.SessionFailed
	s.notify()
}

func (s *Session) backendError(op string, status int, err error) error {
	var be *ports.BackendError
	if errors.As(err, &be) {
		return err
	}
	return &ports.BackendError{Backend: s.backend, Op: op, Status: status, Err: err}
}

// Ensure Session implements ports.EncoderSession and ports.ReadyNotifier
var (
	_ ports.EncoderSession = (*Session)(nil)
	_ ports.ReadyNotifier  = (*Session)(nil)
)

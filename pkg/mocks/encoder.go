package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/user/framereel/pkg/adapters/pixelpool"
	"github.com/user/framereel/pkg/ports"
)

// EncoderBackend is a mock implementation of ports.EncoderBackend.
type EncoderBackend struct {
	NameValue      string
	ExtensionValue string
	SupportsFunc   func(codec ports.Codec) bool
	OpenFunc       func(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error)

	// Recorded calls for verification
	mu          sync.Mutex
	OpenCalls   []ports.SessionSettings
	LastSession *EncoderSession
}

func (m *EncoderBackend) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

func (m *EncoderBackend) Extension() string {
	if m.ExtensionValue != "" {
		return m.ExtensionValue
	}
	return ".mov"
}

func (m *EncoderBackend) Supports(codec ports.Codec) bool {
	if m.SupportsFunc != nil {
		return m.SupportsFunc(codec)
	}
	return true
}

func (m *EncoderBackend) Open(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
	m.mu.Lock()
	m.OpenCalls = append(m.OpenCalls, settings)
	m.mu.Unlock()

	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, settings)
	}
	session := NewEncoderSession(settings)
	m.mu.Lock()
	m.LastSession = session
	m.mu.Unlock()
	return session, nil
}

// Session returns the session created by the most recent default Open.
func (m *EncoderBackend) Session() *EncoderSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastSession
}

var _ ports.EncoderBackend = (*EncoderBackend)(nil)

// AppendCall records a call to Append.
type AppendCall struct {
	PTS   ports.PresentationTime
	Frame *image.NRGBA
}

// EncoderSession is a mock implementation of ports.EncoderSession.
// By default it draws buffers from a real pixelpool and keeps a copy of
// every appended frame.
type EncoderSession struct {
	Settings     ports.SessionSettings
	PoolCapacity int

	StartWritingFunc  func() error
	ReadyFunc         func() bool
	AppendFunc        func(buf ports.PixelBuffer, pts ports.PresentationTime) error
	FinishWritingFunc func(ctx context.Context) error
	CancelFunc        func() error

	mu             sync.Mutex
	pool           *pixelpool.Pool
	status         ports.SessionStatus
	err            error
	AppendCalls    []AppendCall
	ReadyChecks    int
	MarkedFinished bool
	FinishCalled   bool
	CancelCalled   bool
}

// NewEncoderSession creates a mock session for settings.
func NewEncoderSession(settings ports.SessionSettings) *EncoderSession {
	return &EncoderSession{
		Settings:     settings,
		PoolCapacity: pixelpool.DefaultCapacity,
		status:       ports.SessionOpened,
	}
}

func (m *EncoderSession) StartWriting() error {
	if m.StartWritingFunc != nil {
		if err := m.StartWritingFunc(); err != nil {
			m.fail(err)
			return err
		}
	}

	format := m.Settings.SourceFormat
	if format == 0 {
		format = ports.PixelFormatARGB32
	}
	pool, err := pixelpool.New(format, m.Settings.Width, m.Settings.Height, m.PoolCapacity)
	if err != nil {
		m.fail(err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = pool
	m.status = ports.SessionWriting
	return nil
}

func (m *EncoderSession) PixelBufferPool() ports.PixelBufferPool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool == nil {
		return nil
	}
	return m.pool
}

// Pool returns the underlying pixelpool for verification.
func (m *EncoderSession) Pool() *pixelpool.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool
}

func (m *EncoderSession) IsReadyForMoreData() bool {
	m.mu.Lock()
	m.ReadyChecks++
	m.mu.Unlock()
	if m.ReadyFunc != nil {
		return m.ReadyFunc()
	}
	return true
}

func (m *EncoderSession) Append(buf ports.PixelBuffer, pts ports.PresentationTime) error {
	frame, err := pixelpool.ToNRGBA(buf)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, AppendCall{PTS: pts, Frame: frame})
	m.mu.Unlock()

	if m.AppendFunc != nil {
		if err := m.AppendFunc(buf, pts); err != nil {
			m.fail(err)
			return err
		}
	}
	return nil
}

func (m *EncoderSession) MarkAsFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkedFinished = true
}

func (m *EncoderSession) FinishWriting(ctx context.Context) error {
	m.mu.Lock()
	m.FinishCalled = true
	m.status = ports.SessionFinalizing
	m.mu.Unlock()

	if m.FinishWritingFunc != nil {
		if err := m.FinishWritingFunc(ctx); err != nil {
			m.fail(err)
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = ports.SessionCompleted
	return nil
}

func (m *EncoderSession) Cancel() error {
	m.mu.Lock()
	m.CancelCalled = true
	if !m.status.Terminal() {
		m.status = ports.SessionCancelled
	}
	m.mu.Unlock()

	if m.CancelFunc != nil {
		return m.CancelFunc()
	}
	return nil
}

func (m *EncoderSession) Status() ports.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *EncoderSession) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Appended returns a copy of the recorded Append calls.
func (m *EncoderSession) Appended() []AppendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AppendCall(nil), m.AppendCalls...)
}

func (m *EncoderSession) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = ports.SessionFailed
	m.err = err
}

var _ ports.EncoderSession = (*EncoderSession)(nil)

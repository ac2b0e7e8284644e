// Package pixelpool provides a bounded pool of reference-counted pixel buffers.
package pixelpool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/user/framereel/pkg/ports"
)

var (
	// ErrExhausted is returned when every buffer in the pool is in use.
	ErrExhausted = errors.New("pixelpool: pool exhausted")

	// ErrClosed is returned when acquiring from a closed pool.
	ErrClosed = errors.New("pixelpool: pool closed")
)

// DefaultCapacity is the number of buffers a pool holds when none is given.
const DefaultCapacity = 4

// Pool implements ports.PixelBufferPool with a fixed number of buffers.
// Buffers are allocated lazily and reused after their last Release.
type Pool struct {
	format   ports.PixelFormat
	width    int
	height   int
	stride   int
	capacity int

	mu       sync.Mutex
	free     []*Buffer
	created  int
	inUse    int
	closed   bool
	acquired uint64
}

// New creates a pool of buffers with the given layout.
func New(format ports.PixelFormat, width, height, capacity int) (*Pool, error) {
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("pixelpool: unsupported pixel format %s", format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixelpool: invalid size %dx%d", width, height)
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Pool{
		format:   format,
		width:    width,
		height:   height,
		stride:   width * bpp,
		capacity: capacity,
	}, nil
}

// Acquire returns a buffer holding one reference.
func (p *Pool) Acquire() (ports.PixelBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	var buf *Buffer
	if n := len(p.free); n > 0 {
		buf = p.free[n-1]
		p.free = p.free[:n-1]
	} else if p.created < p.capacity {
		buf = &Buffer{
			pool:   p,
			format: p.format,
			width:  p.width,
			height: p.height,
			stride: p.stride,
			pix:    make([]byte, p.stride*p.height),
		}
		p.created++
	} else {
		return nil, fmt.Errorf("%w: %d of %d buffers in use", ErrExhausted, p.inUse, p.capacity)
	}

	buf.refs.Store(1)
	p.inUse++
	p.acquired++
	return buf, nil
}

// Format returns the pixel format of pooled buffers.
func (p *Pool) Format() ports.PixelFormat {
	return p.format
}

// Size returns the width and height of pooled buffers.
func (p *Pool) Size() (width, height int) {
	return p.width, p.height
}

// InUse returns the number of buffers currently referenced.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Acquired returns the total number of successful acquisitions.
func (p *Pool) Acquired() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// Close drops the free list; buffers still in use are discarded on release.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.free = nil
}

func (p *Pool) recycle(b *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inUse--
	if !p.closed {
		p.free = append(p.free, b)
	}
}

// Buffer implements ports.PixelBuffer.
type Buffer struct {
	pool   *Pool
	format ports.PixelFormat
	width  int
	height int
	stride int
	pix    []byte

	mu   sync.Mutex
	refs atomic.Int32
}

func (b *Buffer) Format() ports.PixelFormat { return b.format }
func (b *Buffer) Width() int                { return b.width }
func (b *Buffer) Height() int               { return b.height }
func (b *Buffer) Stride() int               { return b.stride }

// Lock grants exclusive access to the pixel memory.
func (b *Buffer) Lock() { b.mu.Lock() }

// Unlock releases exclusive access.
func (b *Buffer) Unlock() { b.mu.Unlock() }

// TryLock tries to lock the buffer and reports whether it succeeded.
func (b *Buffer) TryLock() bool { return b.mu.TryLock() }

// Bytes returns the pixel memory.
func (b *Buffer) Bytes() []byte { return b.pix }

// Retain adds a reference.
func (b *Buffer) Retain() {
	if b.refs.Add(1) <= 1 {
		panic("pixelpool: retain of released buffer")
	}
}

// Release drops a reference and recycles the buffer on the last one.
func (b *Buffer) Release() {
	n := b.refs.Add(-1)
	switch {
	case n == 0:
		b.pool.recycle(b)
	case n < 0:
		panic("pixelpool: buffer released too many times")
	}
}

// Ensure Pool implements ports.PixelBufferPool
var _ ports.PixelBufferPool = (*Pool)(nil)

// Ensure Buffer implements ports.PixelBuffer
var _ ports.PixelBuffer = (*Buffer)(nil)

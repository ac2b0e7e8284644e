package ports

// PixelFormat describes the memory layout of a pixel buffer.
type PixelFormat int

const (
	// PixelFormatARGB32 is packed 32-bit pixels in A, R, G, B byte order.
	PixelFormatARGB32 PixelFormat = iota + 1
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatARGB32:
		return "argb32"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the packed size of one pixel, or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatARGB32:
		return 4
	default:
		return 0
	}
}

// PixelBuffer is a reference-counted block of pixel memory drawn from a pool.
type PixelBuffer interface {
	Format() PixelFormat
	Width() int
	Height() int
	Stride() int

	// Lock grants exclusive access to Bytes until Unlock.
	Lock()
	Unlock()

	// Bytes returns the backing memory. Only valid while locked.
	Bytes() []byte

	// Retain adds a reference. Every Retain needs a matching Release.
	Retain()

	// Release drops a reference; the last release returns the buffer to its pool.
	Release()
}

// PixelBufferPool hands out reusable buffers sized for one encoder session.
type PixelBufferPool interface {
	// Acquire returns a buffer holding one reference.
	Acquire() (PixelBuffer, error)

	// Format returns the pixel format of pooled buffers.
	Format() PixelFormat

	// Size returns the width and height of pooled buffers.
	Size() (width, height int)
}

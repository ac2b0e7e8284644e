package ports

import (
	"fmt"
	"math/big"
)

// PresentationTime is a rational timestamp: Value / Timescale seconds.
type PresentationTime struct {
	Value     int64
	Timescale int32
}

// FrameTime returns the presentation time of frame index at fps frames per second.
func FrameTime(index int64, fps int32) PresentationTime {
	return PresentationTime{Value: index, Timescale: fps}
}

// IsValid reports whether the timescale is positive.
func (t PresentationTime) IsValid() bool {
	return t.Timescale > 0
}

// Seconds returns the time as floating point seconds.
func (t PresentationTime) Seconds() float64 {
	if t.Timescale <= 0 {
		return 0
	}
	return float64(t.Value) / float64(t.Timescale)
}

// Rat returns the exact rational value of the time.
func (t PresentationTime) Rat() *big.Rat {
	if t.Timescale <= 0 {
		return new(big.Rat)
	}
	return big.NewRat(t.Value, int64(t.Timescale))
}

// Compare returns -1, 0 or +1 comparing t with u by exact value.
func (t PresentationTime) Compare(u PresentationTime) int {
	return t.Rat().Cmp(u.Rat())
}

func (t PresentationTime) String() string {
	return fmt.Sprintf("%d/%d", t.Value, t.Timescale)
}

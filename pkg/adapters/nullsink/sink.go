// Package nullsink is the debug sink used when --debug is off.
package nullsink

import (
	"image"

	"github.com/user/framereel/pkg/ports"
)

// Sink reports itself disabled, so callers skip encoding frames for it.
type Sink struct{}

func New() Sink { return Sink{} }

func (Sink) Enabled() bool                          { return false }
func (Sink) SaveJobJSON([]byte) error               { return nil }
func (Sink) SaveSourceFrame(int, image.Image) error { return nil }

var _ ports.DebugSink = Sink{}

package ports

import "image"

// DebugSink receives what a build fed to the encoder when debugging is on.
// Callers check Enabled before doing any work for the sink.
type DebugSink interface {
	Enabled() bool

	// SaveJobJSON receives the resolved job summary, once per job and
	// before any frame.
	SaveJobJSON(data []byte) error

	// SaveSourceFrame receives the decoded source image for frame index.
	SaveSourceFrame(index int, img image.Image) error
}

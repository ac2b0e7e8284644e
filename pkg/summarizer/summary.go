// Package summarizer provides summary generation for build results.
package summarizer

import "time"

// Summary contains the data collected for one build.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`

	// Requested job
	Job JobInfo `json:"job"`

	// Encoder selection
	Encoder EncoderInfo `json:"encoder"`

	// Output details
	Video VideoInfo `json:"video"`
}

// JobInfo describes the requested build.
type JobInfo struct {
	ID        string `json:"id"`
	Format    string `json:"format"`
	Profile   string `json:"profile,omitempty"`
	Images    int    `json:"images"`
	FrameRate int    `json:"frame_rate,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// EncoderInfo describes the backend that wrote the output.
type EncoderInfo struct {
	Backend      string `json:"backend"`
	Requested    string `json:"requested"`
	FallbackUsed bool   `json:"fallback_used"`
	Codec        string `json:"codec,omitempty"`        // Codec the profile asked for
	OutputCodec  string `json:"output_codec,omitempty"` // Codec the backend wrote
}

// VideoInfo contains information about the written output.
type VideoInfo struct {
	Location   string `json:"location"`
	FrameCount int    `json:"frames"`
	DurationMs int    `json:"duration_ms"`
	FileSize   int64  `json:"file_size"`
	Codec      string `json:"codec,omitempty"` // Empty when the container was not probed
	Timescale  uint32 `json:"timescale,omitempty"`
	ElapsedMs  int    `json:"elapsed_ms"` // Wall time of the build
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithJob sets the requested job.
func (b *Builder) WithJob(job JobInfo) *Builder {
	b.summary.Job = job
	return b
}

// WithEncoder sets the backend selection.
func (b *Builder) WithEncoder(backend, requested string, fallback bool) *Builder {
	b.summary.Encoder = EncoderInfo{
		Backend:      backend,
		Requested:    requested,
		FallbackUsed: fallback,
	}
	return b
}

// WithCodecs records the requested codec and the one the backend wrote.
func (b *Builder) WithCodecs(requested, written string) *Builder {
	b.summary.Encoder.Codec = requested
	b.summary.Encoder.OutputCodec = written
	return b
}

// WithVideo sets output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// WithElapsed sets the wall time of the build.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Video.ElapsedMs = int(d.Milliseconds())
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

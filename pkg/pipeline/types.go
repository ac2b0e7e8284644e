package pipeline

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/user/framereel/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DimensionOf returns the pixel size of img.
func DimensionOf(img image.Image) Dimension {
	b := img.Bounds()
	return Dimension{Width: b.Dx(), Height: b.Dy()}
}

func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Frame rate and alignment limits enforced before a session is opened.
const (
	MinFrameRate     = 1
	MaxFrameRate     = 60
	DefaultFrameRate = 30
	WidthAlignment   = 16
)

// High-efficiency encoder settings.
const (
	HighEfficiencyBitRate          = 960000
	HighEfficiencyKeyFrameInterval = 1
)

// =============================================================================
// Formats and Profiles
// =============================================================================

// Format is the output format requested by the caller.
type Format string

const (
	// FormatH264 produces a baseline-profile video.
	FormatH264 Format = "h264"
	// FormatHEVC produces a high-efficiency video with alpha.
	FormatHEVC Format = "hevc"
	// FormatGIF produces a looping animated image without engaging the encoder.
	FormatGIF Format = "gif"
)

// ParseFormat parses a format name. An empty name selects FormatH264.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "h264", "baseline":
		return FormatH264, nil
	case "hevc", "h265", "high-efficiency":
		return FormatHEVC, nil
	case "gif", "loop", "loop-image":
		return FormatGIF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// IsVideo reports whether the format goes through the encoder session.
func (f Format) IsVideo() bool {
	return f == FormatH264 || f == FormatHEVC
}

// Profile returns the codec profile for a video format.
func (f Format) Profile() (Profile, bool) {
	switch f {
	case FormatH264:
		return ProfileBaseline, true
	case FormatHEVC:
		return ProfileHighEfficiency, true
	default:
		return 0, false
	}
}

// Profile selects the codec configuration of a video job.
type Profile int

const (
	// ProfileBaseline is H.264 for the widest compatibility.
	ProfileBaseline Profile = iota
	// ProfileHighEfficiency is HEVC with straight alpha at a bounded bitrate.
	ProfileHighEfficiency
)

// String returns the string representation of the profile.
func (p Profile) String() string {
	switch p {
	case ProfileBaseline:
		return "baseline"
	case ProfileHighEfficiency:
		return "high-efficiency"
	default:
		return "unknown"
	}
}

// Codec returns the backend codec for the profile.
func (p Profile) Codec() ports.Codec {
	if p == ProfileHighEfficiency {
		return ports.CodecHEVCAlpha
	}
	return ports.CodecH264
}

// PreservesAlpha reports whether the profile keeps the alpha channel.
func (p Profile) PreservesAlpha() bool {
	return p == ProfileHighEfficiency
}

// =============================================================================
// Job Types
// =============================================================================

// ValidateFrameRate checks fps against [MinFrameRate, MaxFrameRate].
func ValidateFrameRate(fps int) error {
	if fps < MinFrameRate || fps > MaxFrameRate {
		return fmt.Errorf("%w: got %d", ErrInvalidFrameRate, fps)
	}
	return nil
}

// ValidateSize checks that d is non-empty and its width is a multiple of WidthAlignment.
func ValidateSize(d Dimension) error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: empty image %s", ErrImageLoad, d)
	}
	if d.Width%WidthAlignment != 0 {
		return fmt.Errorf("%w: width %d", ErrWidthNotAligned, d.Width)
	}
	return nil
}

// JobSpec describes one video build. It cannot be changed once constructed.
type JobSpec struct {
	id         string
	images     []string
	frameRate  int
	size       Dimension
	profile    Profile
	outputPath string
}

// NewJobSpec validates the parameters and returns an immutable JobSpec.
func NewJobSpec(id string, images []string, frameRate int, size Dimension, profile Profile, outputPath string) (JobSpec, error) {
	if len(images) == 0 {
		return JobSpec{}, ErrEmptyImageList
	}
	if err := ValidateFrameRate(frameRate); err != nil {
		return JobSpec{}, err
	}
	if err := ValidateSize(size); err != nil {
		return JobSpec{}, err
	}
	if outputPath == "" {
		return JobSpec{}, fmt.Errorf("framereel: output path is required")
	}

	return JobSpec{
		id:         id,
		images:     append([]string(nil), images...),
		frameRate:  frameRate,
		size:       size,
		profile:    profile,
		outputPath: outputPath,
	}, nil
}

// ID returns the job identifier.
func (j JobSpec) ID() string { return j.id }

// FrameCount returns the number of frames in the job.
func (j JobSpec) FrameCount() int { return len(j.images) }

// Image returns the reference of frame i.
func (j JobSpec) Image(i int) string { return j.images[i] }

// Images returns a copy of the ordered image references.
func (j JobSpec) Images() []string { return append([]string(nil), j.images...) }

// FrameRate returns the target frame rate.
func (j JobSpec) FrameRate() int { return j.frameRate }

// Size returns the target pixel dimensions.
func (j JobSpec) Size() Dimension { return j.size }

// Profile returns the codec profile.
func (j JobSpec) Profile() Profile { return j.profile }

// OutputPath returns the output destination.
func (j JobSpec) OutputPath() string { return j.outputPath }

// FrameTime returns the presentation time of frame i.
func (j JobSpec) FrameTime(i int) ports.PresentationTime {
	return ports.FrameTime(int64(i), int32(j.frameRate))
}

// Duration returns the total playback time of the job.
func (j JobSpec) Duration() ports.PresentationTime {
	return j.FrameTime(len(j.images))
}

// SessionSettings returns the encoder configuration for the job's profile.
func (j JobSpec) SessionSettings() ports.SessionSettings {
	settings := ports.SessionSettings{
		OutputPath:   j.outputPath,
		Codec:        j.profile.Codec(),
		Width:        j.size.Width,
		Height:       j.size.Height,
		FrameRate:    j.frameRate,
		SourceFormat: ports.PixelFormatARGB32,
	}
	if j.profile == ProfileHighEfficiency {
		settings.AverageBitRate = HighEfficiencyBitRate
		settings.MaxKeyFrameInterval = HighEfficiencyKeyFrameInterval
		settings.PreserveAlpha = true
		settings.Quality = 100
	}
	return settings
}

// JobSummary is the serializable view of a JobSpec.
type JobSummary struct {
	ID         string    `json:"id"`
	Frames     int       `json:"frames"`
	FrameRate  int       `json:"frame_rate"`
	Size       Dimension `json:"size"`
	Profile    string    `json:"profile"`
	OutputPath string    `json:"output_path"`
	Duration   string    `json:"duration"`
	Images     []string  `json:"images"`
}

// Summary returns the serializable view of the job.
func (j JobSpec) Summary() JobSummary {
	return JobSummary{
		ID:         j.id,
		Frames:     len(j.images),
		FrameRate:  j.frameRate,
		Size:       j.size,
		Profile:    j.profile.String(),
		OutputPath: j.outputPath,
		Duration:   j.Duration().String(),
		Images:     j.Images(),
	}
}

// =============================================================================
// Progress and Results
// =============================================================================

// Progress reports how many frames have been submitted.
type Progress struct {
	Completed int64
	Total     int64
}

// Fraction returns the completed share in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// ProgressFunc receives progress notifications in frame order.
type ProgressFunc func(Progress)

// Result is the terminal outcome of a build: a location on success or a coded error.
type Result struct {
	JobID    string
	Format   Format
	Location string
	Frames   int
	Duration ports.PresentationTime
	Err      *BuildError
}

// OK reports whether the build succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// =============================================================================
// Feed Stage Types
// =============================================================================

// FeedInput contains what the frame feeder needs for one session.
type FeedInput struct {
	Job        JobSpec
	Session    ports.EncoderSession
	OnProgress ProgressFunc // Optional
}

// FeedResult contains the outcome of a completed feed.
type FeedResult struct {
	Location string
	Frames   int
	Duration ports.PresentationTime
}

// =============================================================================
// Loop Export Stage Types
// =============================================================================

// LoopInput contains parameters for the looping image export.
type LoopInput struct {
	Images     []string
	OutputPath string
	FrameDelay time.Duration // Per-frame display time (default: 1/30 s)
	LoopCount  int           // 0 loops forever
}

// DefaultLoopFrameDelay is the per-frame delay of exported loops.
const DefaultLoopFrameDelay = time.Second / 30

// LoopResult contains the exported loop.
type LoopResult struct {
	Location string
	Frames   int
}

package summarizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	assert.False(t, summary.GeneratedAt.Before(before), "GeneratedAt before %v", before)
	assert.False(t, summary.GeneratedAt.After(after), "GeneratedAt after %v", after)
}

func TestBuilder(t *testing.T) {
	summary := NewBuilder().
		WithJob(JobInfo{ID: "job-1", Format: "h264", Images: 30, FrameRate: 30, Width: 64, Height: 64}).
		WithEncoder("mp4", "auto", true).
		WithCodecs("h264", "mjpeg").
		WithVideo(VideoInfo{Location: "/out/output.mp4", FrameCount: 30, DurationMs: 1000}).
		WithElapsed(250 * time.Millisecond).
		Build()

	assert.Equal(t, "job-1", summary.Job.ID)
	assert.Equal(t, 30, summary.Job.Images)
	assert.Equal(t, EncoderInfo{
		Backend:      "mp4",
		Requested:    "auto",
		FallbackUsed: true,
		Codec:        "h264",
		OutputCodec:  "mjpeg",
	}, summary.Encoder)
	assert.Equal(t, "/out/output.mp4", summary.Video.Location)
	assert.Equal(t, 250, summary.Video.ElapsedMs)
}

func TestBuilder_CodecsAfterEncoder(t *testing.T) {
	// WithEncoder replaces the whole section, so codecs go last.
	summary := NewBuilder().
		WithCodecs("h264", "mjpeg").
		WithEncoder("ffmpeg", "auto", false).
		Build()

	assert.Empty(t, summary.Encoder.Codec)
	assert.Empty(t, summary.Encoder.OutputCodec)
}

func TestBuilder_ElapsedAfterVideo(t *testing.T) {
	summary := NewBuilder().
		WithElapsed(time.Second).
		WithVideo(VideoInfo{FrameCount: 1}).
		Build()

	// WithVideo replaces the whole section.
	assert.Zero(t, summary.Video.ElapsedMs)
}

package pipeline

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framereel/pkg/ports"
)

var size64 = Dimension{Width: 64, Height: 64}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatH264},
		{"baseline", FormatH264},
		{"H264", FormatH264},
		{"hevc", FormatHEVC},
		{"high-efficiency", FormatHEVC},
		{" gif ", FormatGIF},
		{"loop-image", FormatGIF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if assert.NoError(t, err, "ParseFormat(%q)", tt.in) {
			assert.Equal(t, tt.want, got, "ParseFormat(%q)", tt.in)
		}
	}

	_, err := ParseFormat("webm")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormat_Profile(t *testing.T) {
	p, ok := FormatH264.Profile()
	assert.True(t, ok)
	assert.Equal(t, ProfileBaseline, p)
	p, ok = FormatHEVC.Profile()
	assert.True(t, ok)
	assert.Equal(t, ProfileHighEfficiency, p)
	_, ok = FormatGIF.Profile()
	assert.False(t, ok, "gif has no codec profile")

	assert.False(t, FormatGIF.IsVideo())
	assert.True(t, FormatHEVC.IsVideo())
	assert.Equal(t, ports.CodecHEVCAlpha, ProfileHighEfficiency.Codec())
	assert.Equal(t, ports.CodecH264, ProfileBaseline.Codec())
}

func TestValidateFrameRate(t *testing.T) {
	for _, fps := range []int{1, 24, 30, 60} {
		assert.NoError(t, ValidateFrameRate(fps), "ValidateFrameRate(%d)", fps)
	}
	for _, fps := range []int{0, 61, -1} {
		assert.ErrorIs(t, ValidateFrameRate(fps), ErrInvalidFrameRate, "ValidateFrameRate(%d)", fps)
	}
}

func TestNewJobSpec_Validation(t *testing.T) {
	images := []string{"a.png"}

	tests := []struct {
		name    string
		images  []string
		fps     int
		size    Dimension
		out     string
		wantErr error
	}{
		{"empty list", nil, 30, size64, "/o.mov", ErrEmptyImageList},
		{"frame rate", images, 0, size64, "/o.mov", ErrInvalidFrameRate},
		{"alignment", images, 30, Dimension{Width: 60, Height: 64}, "/o.mov", ErrWidthNotAligned},
		{"empty image", images, 30, Dimension{Width: 0, Height: 64}, "/o.mov", ErrImageLoad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJobSpec("j", tt.images, tt.fps, tt.size, ProfileBaseline, tt.out)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := NewJobSpec("j", images, 30, size64, ProfileBaseline, "")
	assert.Error(t, err, "empty output path")
}

func TestJobSpec_ImagesAreCopied(t *testing.T) {
	images := []string{"a.png", "b.png"}
	job, err := NewJobSpec("j", images, 30, size64, ProfileBaseline, "/o.mov")
	require.NoError(t, err)
	images[0] = "changed.png"
	assert.Equal(t, "a.png", job.Image(0), "job changed with caller slice")
	out := job.Images()
	out[1] = "changed.png"
	assert.Equal(t, "b.png", job.Image(1), "job changed through Images()")
}

func TestJobSpec_FrameTimeHasNoDrift(t *testing.T) {
	for _, fps := range []int{24, 30, 60} {
		images := make([]string, 3*fps+1)
		job, err := NewJobSpec("j", images, fps, size64, ProfileBaseline, "/o.mov")
		require.NoError(t, err)

		acc := new(big.Rat)
		step := big.NewRat(1, int64(fps))
		for i := 0; i < job.FrameCount(); i++ {
			require.Zero(t, job.FrameTime(i).Rat().Cmp(acc), "fps %d frame %d: %s != %s", fps, i, job.FrameTime(i).Rat(), acc)
			acc.Add(acc, step)
		}
		got := job.Duration().Rat()
		assert.Zero(t, got.Cmp(acc), "fps %d duration = %s, want %s", fps, got, acc)
	}
}

func TestJobSpec_SessionSettings(t *testing.T) {
	base, _ := NewJobSpec("j", []string{"a"}, 30, size64, ProfileBaseline, "/o.mov")
	s := base.SessionSettings()
	assert.Equal(t, ports.CodecH264, s.Codec)
	assert.False(t, s.PreserveAlpha)
	assert.Zero(t, s.AverageBitRate)
	assert.Equal(t, 64, s.Width)
	assert.Equal(t, 64, s.Height)
	assert.Equal(t, 30, s.FrameRate)
	assert.Equal(t, "/o.mov", s.OutputPath)

	he, _ := NewJobSpec("j", []string{"a"}, 30, size64, ProfileHighEfficiency, "/o.mov")
	s = he.SessionSettings()
	assert.Equal(t, ports.CodecHEVCAlpha, s.Codec)
	assert.True(t, s.PreserveAlpha)
	assert.Equal(t, HighEfficiencyBitRate, s.AverageBitRate)
	assert.Equal(t, HighEfficiencyKeyFrameInterval, s.MaxKeyFrameInterval)
}

func TestJobSpec_Summary(t *testing.T) {
	job, _ := NewJobSpec("job-7", []string{"a.png", "b.png"}, 24, size64, ProfileHighEfficiency, "/o.mov")
	data, err := json.Marshal(job.Summary())
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "job-7", got["id"])
	assert.Equal(t, float64(24), got["frame_rate"])
	assert.Equal(t, "high-efficiency", got["profile"])
	assert.Equal(t, "2/24", got["duration"])
}

func TestProgress_Fraction(t *testing.T) {
	assert.Equal(t, 0.75, Progress{Completed: 3, Total: 4}.Fraction())
	assert.Zero(t, Progress{}.Fraction())
}

func TestBuildError(t *testing.T) {
	be := NewBuildError(CodeBuildVideoFailed, ErrWidthNotAligned)
	assert.Equal(t, "BUILD_VIDEO_FAILED: "+ErrWidthNotAligned.Error(), be.String())
	assert.ErrorIs(t, be, ErrWidthNotAligned, "BuildError unwraps to its cause")

	assert.Nil(t, AsBuildError(nil, CodeAlreadyRunning), "nil error stays nil")
	assert.Same(t, be, AsBuildError(be, CodeAlreadyRunning), "existing BuildError is returned as is")
	assert.Equal(t, CodeFailedLoadImage, AsBuildError(errors.New("x"), CodeFailedLoadImage).Code)
	assert.Equal(t, "ALREADY_RUNNING", (&BuildError{Code: CodeAlreadyRunning}).Error(), "no cause prints the code")
}

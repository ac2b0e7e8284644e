package backendselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framereel/pkg/ports"
)

func withFFmpeg(t *testing.T, available bool) {
	t.Helper()
	orig := ffmpegAvailable
	ffmpegAvailable = func() bool { return available }
	t.Cleanup(func() { ffmpegAvailable = orig })
}

func TestNew_AutoPrefersFFmpeg(t *testing.T) {
	withFFmpeg(t, true)

	backend, info, err := New(ports.CodecHEVCAlpha, Options{})
	require.NoError(t, err, "failed to select backend")
	assert.Equal(t, "ffmpeg", backend.Name())
	assert.False(t, info.FallbackUsed, "fallback should not be used when ffmpeg is available")
	assert.Equal(t, KindAuto, info.Requested)
	assert.Equal(t, ports.CodecHEVCAlpha, info.OutputCodec)
	assert.False(t, info.Substituted())
}

func TestNew_AutoFallsBackForBaseline(t *testing.T) {
	withFFmpeg(t, false)

	backend, info, err := New(ports.CodecH264, Options{Kind: KindAuto})
	require.NoError(t, err, "failed to select backend")
	assert.Equal(t, "mp4", backend.Name())
	assert.True(t, info.FallbackUsed, "expected fallback to be reported")
}

func TestNew_ReportsMotionJPEGSubstitution(t *testing.T) {
	withFFmpeg(t, false)

	for _, kind := range []Kind{KindAuto, KindMP4, KindAVI} {
		t.Run(string(kind), func(t *testing.T) {
			backend, info, err := New(ports.CodecH264, Options{Kind: kind})
			require.NoError(t, err)
			assert.Equal(t, ports.CodecH264, info.Codec)
			assert.Equal(t, ports.CodecMJPEG, info.OutputCodec)
			assert.True(t, info.Substituted())
			assert.Equal(t, ports.CodecMJPEG, ports.OutputCodec(backend, ports.CodecH264))
		})
	}
}

func TestNew_AutoHighEfficiencyNeedsFFmpeg(t *testing.T) {
	withFFmpeg(t, false)

	_, _, err := New(ports.CodecHEVCAlpha, Options{})
	assert.ErrorIs(t, err, ErrNoBackendAvailable)
}

func TestNew_Explicit(t *testing.T) {
	withFFmpeg(t, false)

	tests := []struct {
		kind    Kind
		codec   ports.Codec
		want    string
		wantErr bool
	}{
		{KindMP4, ports.CodecH264, "mp4", false},
		{KindAVI, ports.CodecH264, "avi", false},
		{KindMP4, ports.CodecHEVCAlpha, "", true},
		{KindAVI, ports.CodecHEVCAlpha, "", true},
		{KindFFmpeg, ports.CodecH264, "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.codec), func(t *testing.T) {
			backend, info, err := New(tt.codec, Options{Kind: tt.kind})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoBackendAvailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, backend.Name())
			assert.Equal(t, tt.want, info.Backend)
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"":       KindAuto,
		"auto":   KindAuto,
		"FFmpeg": KindFFmpeg,
		" mp4 ":  KindMP4,
		"avi":    KindAVI,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if assert.NoError(t, err, "ParseKind(%q)", in) {
			assert.Equal(t, want, got, "ParseKind(%q)", in)
		}
	}

	_, err := ParseKind("gstreamer")
	assert.Error(t, err, "expected error for unknown backend")
}

package avibackend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framereel/pkg/adapters/logger"
	"github.com/user/framereel/pkg/ports"
)

func TestBackend_WritesAVI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.avi")
	settings := ports.SessionSettings{
		OutputPath:   path,
		Codec:        ports.CodecH264,
		Width:        32,
		Height:       16,
		FrameRate:    15,
		SourceFormat: ports.PixelFormatARGB32,
	}

	session, err := New(Options{}, logger.NewNoop()).Open(context.Background(), settings)
	require.NoError(t, err, "Open failed")
	require.NoError(t, session.StartWriting(), "StartWriting failed")

	for i := 0; i < 5; i++ {
		for !session.IsReadyForMoreData() {
			<-session.(ports.ReadyNotifier).ReadyChan()
		}
		buf, err := session.PixelBufferPool().Acquire()
		require.NoError(t, err, "acquire")
		err = session.Append(buf, ports.FrameTime(int64(i), 15))
		buf.Release()
		require.NoError(t, err, "append %d", i)
	}

	require.NoError(t, session.FinishWriting(context.Background()), "FinishWriting failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 12)
	assert.True(t, bytes.HasPrefix(data, []byte("RIFF")), "expected a RIFF file")
	assert.Equal(t, []byte("AVI "), data[8:12])
	assert.GreaterOrEqual(t, bytes.Count(data, []byte("00dc")), 5, "expected a chunk per frame")
}

func TestBackend_RejectsAlphaCodec(t *testing.T) {
	settings := ports.SessionSettings{
		OutputPath: filepath.Join(t.TempDir(), "output.avi"),
		Codec:      ports.CodecHEVCAlpha,
		Width:      16,
		Height:     16,
		FrameRate:  30,
	}
	_, err := New(Options{}, logger.NewNoop()).Open(context.Background(), settings)
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestBackend_WritesMotionJPEGForBaseline(t *testing.T) {
	backend := New(Options{}, logger.NewNoop())
	assert.True(t, backend.Supports(ports.CodecH264))
	assert.Equal(t, ports.CodecMJPEG, ports.OutputCodec(backend, ports.CodecH264))
	assert.Equal(t, ".avi", backend.Extension())
}

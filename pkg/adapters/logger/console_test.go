package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framereel/pkg/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := NewConsoleTo(ports.LevelInfo, &stdout, &stderr)

	log.Debug("hidden %d", 1)
	log.Info("queued %d frames", 3)
	log.Warn("slow frame %d", 2)
	log.Error("gave up on %s", "x.png")

	assert.Equal(t, "queued 3 frames\n", stdout.String())
	assert.Equal(t, "slow frame 2\ngave up on x.png\n", stderr.String())
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := NewConsoleTo(ports.LevelQuiet, &stdout, &stderr)

	log.Error("nothing %d", 1)
	assert.Zero(t, stdout.Len())
	assert.Zero(t, stderr.Len())
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var stdout bytes.Buffer
	log := NewConsoleTo(ports.LevelDebug, &stdout, &stdout)

	log.WithComponent("feed").WithComponent("convert").Debug("frame %d", 4)

	assert.Equal(t, "[feed/convert] frame 4\n", stdout.String())
}

func TestConsoleLogger_ConcurrentLines(t *testing.T) {
	var stdout bytes.Buffer
	log := NewConsoleTo(ports.LevelInfo, &stdout, &stdout)
	feed := log.WithComponent("feed")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				log.Info("line %d", i)
			} else {
				feed.Info("line %d", i)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.Regexp(t, `^(\[feed\] )?line \d+$`, line)
	}
}

func TestNoopLogger(t *testing.T) {
	log := NewNoop()
	log.Info("ignored %d", 1)
	assert.Equal(t, ports.Logger(log), log.WithComponent("x"), "WithComponent should return the same logger")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want ports.LogLevel
	}{
		{"", ports.LevelInfo},
		{"debug", ports.LevelDebug},
		{"INFO", ports.LevelInfo},
		{" warn ", ports.LevelWarn},
		{"warning", ports.LevelWarn},
		{"error", ports.LevelError},
		{"quiet", ports.LevelQuiet},
	}
	for _, tt := range tests {
		got, err := ports.ParseLogLevel(tt.in)
		if assert.NoError(t, err, "ParseLogLevel(%q)", tt.in) {
			assert.Equal(t, tt.want, got, "ParseLogLevel(%q)", tt.in)
		}
	}

	_, err := ports.ParseLogLevel("loud")
	assert.ErrorIs(t, err, ports.ErrUnknownLogLevel)
}

// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/user/framereel/pkg/adapters/backendselect"
	"github.com/user/framereel/pkg/adapters/testcard"
	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
	"github.com/user/framereel/pkg/recorder"
	"github.com/user/framereel/pkg/stages/feed"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for framereel.
type Config struct {
	// Output
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	FrameRate int    `yaml:"frame_rate"`

	// Encoding
	Backend     string `yaml:"backend"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	Preset      string `yaml:"preset"`
	JPEGQuality int    `yaml:"jpeg_quality"`
	QueueDepth  int    `yaml:"queue_depth"`

	// Feeding
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// Looping image
	Loop LoopConfig `yaml:"loop"`

	// Test frames
	TestCard TestCardConfig `yaml:"testcard"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// LoopConfig represents looping image settings.
type LoopConfig struct {
	FrameDelayMs int `yaml:"frame_delay_ms"`
	LoopCount    int `yaml:"loop_count"`
}

// TestCardConfig represents test frame generation settings.
type TestCardConfig struct {
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	Frames          int    `yaml:"frames"`
	Transparent     bool   `yaml:"transparent"`
	BackgroundColor string `yaml:"background_color"`
	AccentColor     string `yaml:"accent_color"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputDir: ".",
		Format:    string(pipeline.FormatH264),
		FrameRate: pipeline.DefaultFrameRate,

		Backend:     string(backendselect.KindAuto),
		Preset:      "medium",
		JPEGQuality: 90,
		QueueDepth:  2,

		PollIntervalMs: 10,

		Loop: LoopConfig{
			FrameDelayMs: 33,
		},

		TestCard: TestCardConfig{
			Width:           320,
			Height:          240,
			Frames:          30,
			BackgroundColor: "#20242c",
			AccentColor:     "#f59e0b",
		},

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a build.
// Frame rate is left to the recorder, which rejects it per request.
func (c Config) Validate() error {
	var errs []error
	if _, err := pipeline.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := backendselect.ParseKind(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("config: jpeg_quality must be between 0 and 100, got %d", c.JPEGQuality))
	}
	if c.QueueDepth < 0 {
		errs = append(errs, fmt.Errorf("config: queue_depth must not be negative, got %d", c.QueueDepth))
	}
	if c.PollIntervalMs < 0 {
		errs = append(errs, fmt.Errorf("config: poll_interval_ms must not be negative, got %d", c.PollIntervalMs))
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: log_level: %w", err))
	}
	if c.Loop.LoopCount < -1 {
		errs = append(errs, fmt.Errorf("config: loop.loop_count must be -1 or more, got %d", c.Loop.LoopCount))
	}
	return errors.Join(errs...)
}

// OutputFormat returns the parsed output format.
func (c Config) OutputFormat() (pipeline.Format, error) {
	return pipeline.ParseFormat(c.Format)
}

// Level returns the parsed log level. Debug mode forces debug output.
func (c Config) Level() ports.LogLevel {
	if c.Debug {
		return ports.LevelDebug
	}
	level, err := ports.ParseLogLevel(c.LogLevel)
	if err != nil {
		return ports.LevelInfo
	}
	return level
}

// ToRecorderOptions converts Config to recorder.Options.
func (c Config) ToRecorderOptions() recorder.Options {
	return recorder.Options{
		OutputDir:      c.OutputDir,
		LoopFrameDelay: time.Duration(c.Loop.FrameDelayMs) * time.Millisecond,
		LoopCount:      c.Loop.LoopCount,
	}
}

// ToFeedOptions converts Config to feed.Options.
func (c Config) ToFeedOptions() feed.Options {
	return feed.Options{
		PollInterval: time.Duration(c.PollIntervalMs) * time.Millisecond,
	}
}

// ToBackendOptions converts Config to backendselect.Options.
func (c Config) ToBackendOptions(logger ports.Logger) (backendselect.Options, error) {
	kind, err := backendselect.ParseKind(c.Backend)
	if err != nil {
		return backendselect.Options{}, err
	}
	return backendselect.Options{
		Kind:        kind,
		FFmpegPath:  c.FFmpegPath,
		Preset:      c.Preset,
		JPEGQuality: c.JPEGQuality,
		QueueDepth:  c.QueueDepth,
		Logger:      logger,
	}, nil
}

// ToTestCardOptions converts Config to testcard.Options.
func (c Config) ToTestCardOptions() testcard.Options {
	return testcard.Options{
		Width:       c.TestCard.Width,
		Height:      c.TestCard.Height,
		Frames:      c.TestCard.Frames,
		Transparent: c.TestCard.Transparent,
		Background:  ParseColor(c.TestCard.BackgroundColor),
		Accent:      ParseColor(c.TestCard.AccentColor),
	}
}

// ParseColor parses a hex color string ("#rrggbb" or "#rrggbbaa").
// It returns nil for an empty or malformed string so callers keep their default.
func ParseColor(hex string) color.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 && len(hex) != 8 {
		return nil
	}

	var v [4]uint8
	v[3] = 0xff
	for i := 0; i < len(hex)/2; i++ {
		hi, ok1 := hexValue(hex[2*i])
		lo, ok2 := hexValue(hex[2*i+1])
		if !ok1 || !ok2 {
			return nil
		}
		v[i] = hi<<4 | lo
	}

	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

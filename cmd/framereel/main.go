// Package main provides the CLI entry point for framereel.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/user/framereel/pkg/adapters/backendselect"
	"github.com/user/framereel/pkg/adapters/filesink"
	"github.com/user/framereel/pkg/adapters/ggrenderer"
	"github.com/user/framereel/pkg/adapters/imagesource"
	"github.com/user/framereel/pkg/adapters/logger"
	"github.com/user/framereel/pkg/adapters/nullsink"
	"github.com/user/framereel/pkg/adapters/osfilesystem"
	"github.com/user/framereel/pkg/adapters/testcard"
	"github.com/user/framereel/pkg/config"
	"github.com/user/framereel/pkg/containerprobe"
	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
	"github.com/user/framereel/pkg/recorder"
	"github.com/user/framereel/pkg/stages/feed"
	"github.com/user/framereel/pkg/stages/loopexport"
	"github.com/user/framereel/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders build failures as "CODE: message".
func formatError(err error) string {
	var be *pipeline.BuildError
	if errors.As(err, &be) {
		return be.String()
	}
	return err.Error()
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:           "framereel",
		Usage:          l10n.T("Turn image sequences into videos"),
		Description:    l10n.T("framereel encodes an ordered list of same-sized images into a video or a looping GIF."),
		Version:        version,
		HideVersion:    true,
		Writer:         stdout,
		ErrWriter:      stderr,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			buildCommand(),
			probeCommand(),
			testcardCommand(),
			versionCommand(),
		},
	}
}

// =============================================================================
// build
// =============================================================================

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     l10n.T("Encode images into a video"),
		ArgsUsage: "IMAGE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T("Configuration")},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output directory"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: l10n.T("Output format (h264, hevc, gif)"), Category: l10n.T("Output")},
			&cli.IntFlag{Name: "framerate", Aliases: []string{"r"}, Usage: l10n.T("Frames per second (1-60)"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "backend", Usage: l10n.T("Encoder backend (auto, ffmpeg, mp4, avi)"), Category: l10n.T("Encoder")},
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg executable"), Category: l10n.T("Encoder")},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("JPEG quality of the pure Go backends (1-100)"), Category: l10n.T("Encoder")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a build summary to file (Markdown, or JSON for .json)"), Category: l10n.T("Output")},
			&cli.BoolFlag{Name: "no-progress", Usage: l10n.T("Do not print progress"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
		},
		Action: runBuild,
	}
}

func runBuild(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("framerate") {
		cfg.FrameRate = c.Int("framerate")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("quality") {
		cfg.JPEGQuality = c.Int("quality")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	format, err := cfg.OutputFormat()
	if err != nil {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(c, cfg)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	stopSignals := handleSignals(cancel, log)
	defer stopSignals()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	codec := ports.CodecH264
	if profile, ok := format.Profile(); ok {
		codec = profile.Codec()
	}
	backendOpts, err := cfg.ToBackendOptions(log)
	if err != nil {
		return err
	}
	backend, info, err := backendselect.New(codec, backendOpts)
	if err != nil {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, err)
	}
	log.Debug("Using %s backend (requested %s)", info.Backend, info.Requested)
	if info.Substituted() {
		log.Warn("%s backend writes %s in place of %s", info.Backend, info.OutputCodec, info.Codec)
	}

	source := imagesource.New(fs, log)
	rec := recorder.New(
		backend,
		source,
		fs,
		feed.NewStage(source, sink, log, cfg.ToFeedOptions()),
		loopexport.NewStage(source, fs, log),
		sink,
		log,
		cfg.ToRecorderOptions(),
	)

	start := time.Now()
	images := c.Args().Slice()
	job, err := rec.BuildVideo(ctx, recorder.Request{
		Images:    images,
		Format:    format,
		FrameRate: cfg.FrameRate,
	})
	if err != nil {
		return err
	}

	showProgress(c.App.Writer, job, !c.Bool("no-progress") && !c.Bool("quiet") && isTerminal())

	result := <-job.Done()
	if !result.OK() {
		return result.Err
	}
	fmt.Fprintln(c.App.Writer, result.Location)

	if path := c.String("summary"); path != "" {
		summary := buildSummary(source, images, cfg, format, info, result, time.Since(start))
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := writer.Write(path, summary); err != nil {
			log.Error("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}
	return nil
}

// buildSummary collects the report for a finished build. Probing failures
// leave the corresponding fields empty.
func buildSummary(
	source *imagesource.Source,
	images []string,
	cfg config.Config,
	format pipeline.Format,
	info backendselect.Info,
	result pipeline.Result,
	elapsed time.Duration,
) *summarizer.Summary {
	job := summarizer.JobInfo{
		ID:     result.JobID,
		Format: string(format),
		Images: len(images),
	}
	video := summarizer.VideoInfo{
		Location:   result.Location,
		FrameCount: result.Frames,
		DurationMs: int(result.Duration.Seconds() * 1000),
	}
	b := summarizer.NewBuilder()

	if profile, ok := format.Profile(); ok {
		job.Profile = profile.String()
		job.FrameRate = cfg.FrameRate
		b.WithEncoder(info.Backend, string(info.Requested), info.FallbackUsed).
			WithCodecs(string(info.Codec), string(info.OutputCodec))

		if probed, err := containerprobe.ProbeFile(result.Location); err == nil {
			video.Codec = string(probed.Codec)
			video.Timescale = probed.Timescale
		}
	}
	if len(images) > 0 {
		if dim, err := source.Probe(images[0]); err == nil {
			job.Width, job.Height = dim.Width, dim.Height
		}
	}
	if st, err := os.Stat(result.Location); err == nil {
		video.FileSize = st.Size()
	}

	return b.WithJob(job).WithVideo(video).WithElapsed(elapsed).Build()
}

// showProgress consumes job progress until the channel is closed.
func showProgress(w io.Writer, job *recorder.Job, enabled bool) {
	printed := false
	for p := range job.Progress() {
		if !enabled {
			continue
		}
		fmt.Fprintf(w, "\r%s", l10n.F("Frame %d/%d (%.0f%%)", p.Completed, p.Total, p.Fraction()*100))
		printed = true
	}
	if printed {
		fmt.Fprintln(w)
	}
}

func handleSignals(cancel context.CancelFunc, log ports.Logger) func() {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

// =============================================================================
// probe
// =============================================================================

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show the video track of an MP4 or MOV file"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: l10n.T("Print as JSON")},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("exactly one file argument is required"))
			}

			info, err := containerprobe.ProbeFile(c.Args().First())
			if err != nil {
				return err
			}

			w := c.App.Writer
			if c.Bool("json") {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(w, string(data))
				return nil
			}

			fmt.Fprintln(w, l10n.F("Codec: %s (%s)", info.Codec, info.SampleEntry))
			fmt.Fprintln(w, l10n.F("Size: %dx%d", info.Width, info.Height))
			fmt.Fprintln(w, l10n.F("Samples: %d", info.Samples))
			fmt.Fprintln(w, l10n.F("Timescale: %d", info.Timescale))
			fmt.Fprintln(w, l10n.F("Duration: %.3fs", info.Seconds()))
			fmt.Fprintln(w, l10n.F("Fragmented: %t", info.Fragmented))
			return nil
		},
	}
}

// =============================================================================
// testcard
// =============================================================================

func testcardCommand() *cli.Command {
	return &cli.Command{
		Name:      "testcard",
		Usage:     l10n.T("Write numbered test frames"),
		ArgsUsage: "DIR",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
			&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Usage: l10n.T("Number of frames")},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Frame width")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Frame height")},
			&cli.BoolFlag{Name: "transparent", Usage: l10n.T("Leave the background transparent")},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("exactly one directory argument is required"))
			}
			dir := c.Args().First()

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			opts := cfg.ToTestCardOptions()
			if c.IsSet("frames") {
				opts.Frames = c.Int("frames")
			}
			if c.IsSet("width") {
				opts.Width = c.Int("width")
			}
			if c.IsSet("height") {
				opts.Height = c.Int("height")
			}
			if c.IsSet("transparent") {
				opts.Transparent = c.Bool("transparent")
			}

			gen := testcard.New(ggrenderer.New(), osfilesystem.New(), logger.NewNoop())
			paths, err := gen.Write(c.Context, dir, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, l10n.F("Wrote %d frames to %s", len(paths), dir))
			return nil
		},
	}
}

// =============================================================================
// version
// =============================================================================

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, l10n.F("framereel version %s", version))
			fmt.Fprintln(c.App.Writer, l10n.F("ffmpeg available: %t", backendselect.IsFFmpegAvailable()))
			return nil
		},
	}
}

// =============================================================================
// helpers
// =============================================================================

func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Defaults(), nil
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsoleTo(cfg.Level(), c.App.ErrWriter, c.App.ErrWriter)
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

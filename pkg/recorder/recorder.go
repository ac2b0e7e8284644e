// Package recorder turns ordered image sequences into videos.
// A Recorder runs at most one build at a time: it validates the request,
// opens an encoder session and feeds frames on a dedicated goroutine.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
)

// Output file names inside Options.OutputDir.
const (
	VideoBaseName = "output"
	LoopFileName  = "animated.gif"
)

// Options configures a Recorder.
type Options struct {
	OutputDir      string
	LoopFrameDelay time.Duration // Per-frame delay of looping images (default: 1/30 s)
	LoopCount      int           // 0 loops forever
}

// Request describes one build.
type Request struct {
	Images    []string
	Format    pipeline.Format // Empty selects pipeline.FormatH264
	FrameRate int
}

// Recorder coordinates validation, the encoder session and the feed stage.
type Recorder struct {
	backend   ports.EncoderBackend
	source    ports.ImageSource
	fs        ports.FileSystem
	feedStage pipeline.Stage[pipeline.FeedInput, pipeline.FeedResult]
	loopStage pipeline.Stage[pipeline.LoopInput, pipeline.LoopResult]
	sink      ports.DebugSink
	logger    ports.Logger
	opts      Options

	newID func() string

	mu       sync.Mutex
	inFlight *Job
}

// New creates a new Recorder.
func New(
	backend ports.EncoderBackend,
	source ports.ImageSource,
	fs ports.FileSystem,
	feedStage pipeline.Stage[pipeline.FeedInput, pipeline.FeedResult],
	loopStage pipeline.Stage[pipeline.LoopInput, pipeline.LoopResult],
	sink ports.DebugSink,
	logger ports.Logger,
	opts Options,
) *Recorder {
	if opts.LoopFrameDelay <= 0 {
		opts.LoopFrameDelay = pipeline.DefaultLoopFrameDelay
	}
	return &Recorder{
		backend:   backend,
		source:    source,
		fs:        fs,
		feedStage: feedStage,
		loopStage: loopStage,
		sink:      sink,
		logger:    logger,
		opts:      opts,
		newID:     uuid.NewString,
	}
}

// Busy reports whether a build is in flight.
func (r *Recorder) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight != nil
}

// VideoPath returns where video builds are written.
func (r *Recorder) VideoPath() string {
	return filepath.Join(r.opts.OutputDir, VideoBaseName+r.backend.Extension())
}

// LoopPath returns where looping images are written.
func (r *Recorder) LoopPath() string {
	return filepath.Join(r.opts.OutputDir, LoopFileName)
}

// BuildVideo validates req and starts building it.
//
// Requests rejected before any frame is fed return a *pipeline.BuildError:
// ALREADY_RUNNING while another job is in flight, FAILED_LOAD_IMAGE when
// the first image cannot be read, and BUILD_VIDEO_FAILED for invalid
// parameters or when the encoder session cannot be opened. Failures after
// feeding starts are reported on the job's Done channel.
func (r *Recorder) BuildVideo(ctx context.Context, req Request) (*Job, error) {
	format := req.Format
	if format == "" {
		format = pipeline.FormatH264
	}

	r.mu.Lock()
	if running := r.inFlight; running != nil {
		r.mu.Unlock()
		r.logger.Warn("Build rejected, job %s is still running", running.ID())
		return nil, pipeline.NewBuildError(pipeline.CodeAlreadyRunning, pipeline.ErrAlreadyRunning)
	}
	id := r.newID()
	jobCtx, cancel := context.WithCancel(ctx)
	job := newJob(id, format, len(req.Images), cancel)
	r.inFlight = job
	r.mu.Unlock()

	var err error
	if format == pipeline.FormatGIF {
		err = r.exportLoop(jobCtx, job, req)
	} else {
		err = r.startVideo(jobCtx, job, req, format)
	}
	if err != nil {
		r.release(job)
		cancel()
		return nil, err
	}
	return job, nil
}

// exportLoop writes the looping image synchronously and completes job.
func (r *Recorder) exportLoop(ctx context.Context, job *Job, req Request) error {
	r.logger.Info("Exporting %d images as looping image", len(req.Images))

	result, err := r.loopStage.Execute(ctx, pipeline.LoopInput{
		Images:     req.Images,
		OutputPath: r.LoopPath(),
		FrameDelay: r.opts.LoopFrameDelay,
		LoopCount:  r.opts.LoopCount,
	})
	if err != nil {
		r.logger.Error("Failed to export looping image: %s", err)
		return pipeline.NewBuildError(pipeline.CodeFailedLoadImage, err)
	}

	r.logger.Info("Output saved to %s", result.Location)
	r.finish(job, pipeline.Result{
		JobID:    job.ID(),
		Format:   pipeline.FormatGIF,
		Location: result.Location,
		Frames:   result.Frames,
	})
	return nil
}

// startVideo validates the request, opens the session and launches the feeder.
func (r *Recorder) startVideo(ctx context.Context, job *Job, req Request, format pipeline.Format) error {
	profile, ok := format.Profile()
	if !ok {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed,
			fmt.Errorf("%w: %q", pipeline.ErrUnsupportedFormat, format))
	}
	if len(req.Images) == 0 {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, pipeline.ErrEmptyImageList)
	}
	// Checked before any file is touched.
	if err := pipeline.ValidateFrameRate(req.FrameRate); err != nil {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, err)
	}
	if !r.backend.Supports(profile.Codec()) {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed,
			fmt.Errorf("%w: %s backend cannot write %s", pipeline.ErrUnsupportedFormat, r.backend.Name(), profile))
	}

	first, err := r.source.Load(ctx, req.Images[0])
	if err != nil {
		r.logger.Error("Failed to load image: %s", err)
		if !errors.Is(err, pipeline.ErrImageLoad) {
			err = fmt.Errorf("%w: %s: %v", pipeline.ErrImageLoad, req.Images[0], err)
		}
		return pipeline.NewBuildError(pipeline.CodeFailedLoadImage, err)
	}

	spec, err := pipeline.NewJobSpec(job.ID(), req.Images, req.FrameRate, pipeline.DimensionOf(first), profile, r.VideoPath())
	if err != nil {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, err)
	}

	r.logger.Info("Building %s video from %d images at %d fps (%s)",
		profile, spec.FrameCount(), spec.FrameRate(), spec.Size())

	if err := r.prepareOutput(spec.OutputPath()); err != nil {
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, err)
	}

	if r.sink.Enabled() {
		if data, err := json.MarshalIndent(spec.Summary(), "", "  "); err == nil {
			if err := r.sink.SaveJobJSON(data); err != nil {
				r.logger.Warn("Failed to save job summary: %s", err)
			}
		}
	}

	session, err := r.backend.Open(ctx, spec.SessionSettings())
	if err != nil {
		r.logger.Error("Failed to open %s encoder: %s", r.backend.Name(), err)
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, fmt.Errorf("%w: %w", pipeline.ErrSessionOpen, err))
	}
	if err := session.StartWriting(); err != nil {
		_ = session.Cancel()
		r.logger.Error("Failed to open %s encoder: %s", r.backend.Name(), err)
		return pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, fmt.Errorf("%w: %w", pipeline.ErrSessionOpen, err))
	}

	go r.feed(ctx, job, spec, session)
	return nil
}

// prepareOutput creates the output directory and discards a previous output.
func (r *Recorder) prepareOutput(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := r.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	exists, err := r.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("check previous output: %w", err)
	}
	if exists {
		if err := r.fs.Remove(path); err != nil {
			return fmt.Errorf("remove previous output: %w", err)
		}
		r.logger.Debug("Removed previous output %s", path)
	}
	return nil
}

// feed runs on the job goroutine until the session is finalized or abandoned.
func (r *Recorder) feed(ctx context.Context, job *Job, spec pipeline.JobSpec, session ports.EncoderSession) {
	start := time.Now()

	out, err := r.feedStage.Execute(ctx, pipeline.FeedInput{
		Job:        spec,
		Session:    session,
		OnProgress: job.emit,
	})

	result := pipeline.Result{
		JobID:  job.ID(),
		Format: job.Format(),
	}
	if err != nil {
		r.logger.Error("Failed to build video: %s", err)
		result.Err = pipeline.NewBuildError(pipeline.CodeBuildVideoFailed, err)
	} else {
		r.logger.Info("Output saved to %s (%d frames, %.2fs) in %s",
			out.Location, out.Frames, out.Duration.Seconds(), time.Since(start).Round(time.Millisecond))
		result.Location = out.Location
		result.Frames = out.Frames
		result.Duration = out.Duration
	}

	r.finish(job, result)
}

// finish clears the in-flight slot, then delivers the terminal result.
func (r *Recorder) finish(job *Job, result pipeline.Result) {
	r.release(job)
	job.complete(result)
}

func (r *Recorder) release(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight == job {
		r.inFlight = nil
	}
}

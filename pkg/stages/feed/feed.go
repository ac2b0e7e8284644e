// Package feed implements the frame feeding stage.
// It pulls source images one at a time, converts them into pixel buffers
// drawn from the encoder session and submits them only while the session
// reports it is ready for more data.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
	"github.com/user/framereel/pkg/stages/convert"
)

// DefaultPollInterval is how often readiness is rechecked while the session is busy.
const DefaultPollInterval = 10 * time.Millisecond

// Options configures a Stage.
type Options struct {
	PollInterval time.Duration // Readiness poll interval (default: 10ms)
}

// Stage feeds a job's frames into an encoder session.
type Stage struct {
	source       ports.ImageSource
	converter    *convert.Converter
	sink         ports.DebugSink
	logger       ports.Logger
	pollInterval time.Duration

	state atomic.Int32
}

// NewStage creates a new feed stage.
func NewStage(source ports.ImageSource, sink ports.DebugSink, logger ports.Logger, opts Options) *Stage {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Stage{
		source:       source,
		converter:    convert.New(),
		sink:         sink,
		logger:       logger.WithComponent("feed"),
		pollInterval: interval,
	}
}

// State returns the current state of the stage.
func (s *Stage) State() State {
	return State(s.state.Load())
}

func (s *Stage) setState(state State) {
	s.state.Store(int32(state))
}

// Execute submits every frame of input.Job and finalizes the session.
// On failure the session is cancelled instead of finalized and the
// partially written output is left in place.
func (s *Stage) Execute(ctx context.Context, input pipeline.FeedInput) (pipeline.FeedResult, error) {
	result := pipeline.FeedResult{}
	job := input.Job
	session := input.Session

	if session == nil {
		return result, fmt.Errorf("%w: no session", pipeline.ErrPixelBufferUnavailable)
	}

	s.setState(StateFeeding)
	s.logger.Debug("Feeding %d frames at %d fps (%s)", job.FrameCount(), job.FrameRate(), job.Profile())

	cur := cursor{total: job.FrameCount()}
	for {
		if err := s.waitReady(ctx, session); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return result, s.cancel(session, err)
			}
			return result, s.fail(session, err)
		}

		if cur.done() {
			break
		}

		if err := s.feedFrame(ctx, job, session, cur.index); err != nil {
			return result, s.fail(session, err)
		}

		cur.index++
		if input.OnProgress != nil {
			input.OnProgress(pipeline.Progress{Completed: int64(cur.index), Total: int64(cur.total)})
		}
	}

	s.setState(StateFinishing)
	session.MarkAsFinished()
	// Every frame is queued; finalization runs to completion even if ctx ends.
	if err := session.FinishWriting(context.WithoutCancel(ctx)); err != nil {
		return result, s.fail(session, fmt.Errorf("%w: %w", pipeline.ErrFinalize, err))
	}
	s.setState(StateClosed)

	s.logger.Debug("Finalized %s (%d frames, %s)", job.OutputPath(), cur.total, job.Duration())

	result.Location = job.OutputPath()
	result.Frames = cur.total
	result.Duration = job.Duration()
	return result, nil
}

// waitReady blocks until the session accepts more data. It is the only
// point at which cancellation of ctx is observed.
func (s *Stage) waitReady(ctx context.Context, session ports.EncoderSession) error {
	for first := true; ; first = false {
		if err := ctx.Err(); err != nil {
			return err
		}
		if session.Status() == ports.SessionFailed {
			return fmt.Errorf("%w: session failed: %v", pipeline.ErrAppendFailed, session.Err())
		}
		if session.IsReadyForMoreData() {
			return nil
		}
		if first {
			s.logger.Debug("Session busy, waiting")
		}

		if err := s.sleep(ctx, session); err != nil {
			return err
		}
	}
}

func (s *Stage) sleep(ctx context.Context, session ports.EncoderSession) error {
	var notify <-chan struct{}
	if n, ok := session.(ports.ReadyNotifier); ok {
		notify = n.ReadyChan()
	}

	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case <-notify:
	}
	return nil
}

// feedFrame converts and appends frame i. The pixel buffer is held for
// the duration of the call only.
func (s *Stage) feedFrame(ctx context.Context, job pipeline.JobSpec, session ports.EncoderSession, i int) error {
	pool := session.PixelBufferPool()
	if pool == nil {
		return fmt.Errorf("%w: session has no pool", pipeline.ErrPixelBufferUnavailable)
	}

	buf, err := pool.Acquire()
	if err != nil {
		return fmt.Errorf("%w: frame %d: %v", pipeline.ErrPixelBufferUnavailable, i, err)
	}
	defer buf.Release()

	ref := job.Image(i)
	img, err := s.source.Load(context.WithoutCancel(ctx), ref)
	if err != nil {
		if errors.Is(err, pipeline.ErrImageLoad) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", pipeline.ErrImageLoad, ref, err)
	}

	if dim := pipeline.DimensionOf(img); dim != job.Size() {
		return fmt.Errorf("%w: frame %d (%s) is %s, expected %s",
			pipeline.ErrDimensionsMismatch, i, ref, dim, job.Size())
	}

	if s.sink.Enabled() {
		if err := s.sink.SaveSourceFrame(i, img); err != nil {
			s.logger.Warn("Failed to save debug frame %d: %v", i, err)
		}
	}

	if err := s.converter.Convert(img, buf, job.Profile()); err != nil {
		return err
	}

	pts := job.FrameTime(i)
	if err := session.Append(buf, pts); err != nil {
		return fmt.Errorf("%w: frame %d at %s: %w", pipeline.ErrAppendFailed, i, pts, err)
	}

	s.logger.Debug("Appended frame %d/%d at %s", i+1, job.FrameCount(), pts)
	return nil
}

func (s *Stage) fail(session ports.EncoderSession, err error) error {
	s.setState(StateFailed)
	s.logger.Debug("Feeding failed: %v", err)

	if cerr := session.Cancel(); cerr != nil {
		err = multierror.Append(err, fmt.Errorf("cancel session: %w", cerr))
	}
	s.setState(StateClosed)
	return err
}

func (s *Stage) cancel(session ports.EncoderSession, err error) error {
	s.setState(StateCancelling)
	s.logger.Debug("Feeding cancelled")

	if cerr := session.Cancel(); cerr != nil {
		err = multierror.Append(err, fmt.Errorf("cancel session: %w", cerr))
	}
	s.setState(StateClosed)
	return err
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.FeedInput, pipeline.FeedResult] = (*Stage)(nil)

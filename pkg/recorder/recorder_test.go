package recorder

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framereel/pkg/adapters/logger"
	"github.com/user/framereel/pkg/mocks"
	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
	"github.com/user/framereel/pkg/stages/feed"
	"github.com/user/framereel/pkg/stages/loopexport"
)

var blue = color.NRGBA{B: 255, A: 255}

type fixture struct {
	backend *mocks.EncoderBackend
	source  *mocks.ImageSource
	fs      *mocks.FileSystem
	sink    *mocks.DebugSink
	rec     *Recorder
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithSink(t, mocks.NewDebugSink(false))
}

func newFixtureWithSink(t *testing.T, sink *mocks.DebugSink) *fixture {
	t.Helper()

	f := &fixture{
		backend: &mocks.EncoderBackend{},
		source:  mocks.NewImageSource(),
		fs:      mocks.NewFileSystem(),
		sink:    sink,
	}
	log := logger.NewNoop()
	f.rec = New(
		f.backend,
		f.source,
		f.fs,
		feed.NewStage(f.source, f.sink, log, feed.Options{PollInterval: time.Millisecond}),
		loopexport.NewStage(f.source, f.fs, log),
		f.sink,
		log,
		Options{OutputDir: "/out"},
	)
	f.rec.newID = func() string { return "job-1" }
	return f
}

func (f *fixture) frames(n, w, h int) []string {
	refs := make([]string, n)
	for i := range refs {
		refs[i] = f.source.AddSolid(fmt.Sprintf("/frames/%03d.png", i), w, h, blue)
	}
	return refs
}

func wait(t *testing.T, job *Job) pipeline.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := job.Wait(ctx)
	require.NoError(t, err, "job did not finish")
	return result
}

func drain(job *Job) []pipeline.Progress {
	var out []pipeline.Progress
	for p := range job.Progress() {
		out = append(out, p)
	}
	return out
}

func requireCode(t *testing.T, err error, code pipeline.ErrorCode) *pipeline.BuildError {
	t.Helper()
	var be *pipeline.BuildError
	require.True(t, errors.As(err, &be), "expected BuildError, got %v", err)
	assert.Equal(t, code, be.Code)
	return be
}

func TestBuildVideo_Success(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(30, 64, 32)

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID())
	assert.Equal(t, pipeline.FormatH264, job.Format())

	result := wait(t, job)
	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	assert.Equal(t, "/out/output.mov", result.Location)
	assert.Equal(t, 30, result.Frames)
	assert.Equal(t, 1.0, result.Duration.Seconds())

	progress := drain(job)
	require.Len(t, progress, 30)
	assert.Equal(t, pipeline.Progress{Completed: 30, Total: 30}, progress[29])

	session := f.backend.Session()
	require.NotNil(t, session)
	assert.Len(t, session.Appended(), 30)
	assert.True(t, session.FinishCalled)
	assert.Equal(t, ports.SessionCompleted, session.Status())

	require.Len(t, f.backend.OpenCalls, 1)
	settings := f.backend.OpenCalls[0]
	assert.Equal(t, ports.CodecH264, settings.Codec)
	assert.Equal(t, 64, settings.Width)
	assert.Equal(t, 32, settings.Height)
	assert.Equal(t, 30, settings.FrameRate)
	assert.False(t, settings.PreserveAlpha)

	assert.False(t, f.rec.Busy())

	// Done delivers the same result once.
	select {
	case got := <-job.Done():
		assert.Equal(t, result, got)
	default:
		t.Fatal("Done should hold the result")
	}
}

func TestBuildVideo_HighEfficiency(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(4, 32, 32)

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, Format: pipeline.FormatHEVC, FrameRate: 24})
	require.NoError(t, err)
	result := wait(t, job)
	require.True(t, result.OK())

	settings := f.backend.OpenCalls[0]
	assert.Equal(t, ports.CodecHEVCAlpha, settings.Codec)
	assert.True(t, settings.PreserveAlpha)
	assert.Equal(t, pipeline.HighEfficiencyBitRate, settings.AverageBitRate)
	assert.Equal(t, pipeline.HighEfficiencyKeyFrameInterval, settings.MaxKeyFrameInterval)
}

func TestBuildVideo_AlreadyRunning(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(3, 32, 16)

	// The session accepts the first frame, then holds the feeder until opened.
	var open atomic.Bool
	var session *mocks.EncoderSession
	f.backend.OpenFunc = func(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
		s := mocks.NewEncoderSession(settings)
		s.ReadyFunc = func() bool { return open.Load() || len(s.Appended()) < 1 }
		session = s
		return s, nil
	}

	first, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	require.NoError(t, err)
	assert.True(t, f.rec.Busy())
	require.Eventually(t, func() bool {
		return len(session.Appended()) == 1 && len(first.Progress()) == 1
	}, 2*time.Second, time.Millisecond)

	second, err := f.rec.BuildVideo(context.Background(), Request{Images: refs[:1], FrameRate: 60})
	assert.Nil(t, second)
	requireCode(t, err, pipeline.CodeAlreadyRunning)
	assert.ErrorIs(t, err, pipeline.ErrAlreadyRunning)
	assert.Len(t, f.backend.OpenCalls, 1)

	// The rejected request leaves the running job where it was.
	appended := session.Appended()
	require.Len(t, appended, 1)
	assert.Equal(t, ports.FrameTime(0, 30), appended[0].PTS)
	assert.Len(t, first.Progress(), 1)

	open.Store(true)
	result := wait(t, first)
	assert.True(t, result.OK())
	assert.False(t, f.rec.Busy())
	assert.Len(t, session.Appended(), 3)

	progress := drain(first)
	require.Len(t, progress, 3)
	for i, p := range progress {
		assert.Equal(t, int64(i+1), p.Completed)
	}
	assert.Equal(t, pipeline.Progress{Completed: 3, Total: 3}, progress[2])

	third, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	require.NoError(t, err)
	assert.True(t, wait(t, third).OK())
}

func TestBuildVideo_RejectWhileFinishing(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 200; i++ {
		job := newJob(fmt.Sprintf("running-%d", i), pipeline.FormatH264, 1, nil)
		f.rec.mu.Lock()
		f.rec.inFlight = job
		f.rec.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			f.rec.finish(job, pipeline.Result{JobID: job.ID()})
		}()

		// An invalid frame rate fails before any session is opened, so
		// whichever side wins the slot the request is rejected.
		rejected, err := f.rec.BuildVideo(context.Background(), Request{Images: []string{"/missing.png"}, FrameRate: 0})
		<-done
		assert.Nil(t, rejected)
		var be *pipeline.BuildError
		require.ErrorAs(t, err, &be)
		assert.Contains(t, []pipeline.ErrorCode{pipeline.CodeAlreadyRunning, pipeline.CodeBuildVideoFailed}, be.Code)
		assert.False(t, f.rec.Busy())
	}
	assert.Empty(t, f.backend.OpenCalls)
}

func TestBuildVideo_InvalidFrameRate(t *testing.T) {
	for _, fps := range []int{0, 61, -1} {
		t.Run(fmt.Sprint(fps), func(t *testing.T) {
			f := newFixture(t)
			refs := f.frames(2, 32, 16)
			require.NoError(t, f.fs.WriteFile("/out/output.mov", []byte("previous")))

			job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: fps})
			assert.Nil(t, job)
			requireCode(t, err, pipeline.CodeBuildVideoFailed)
			assert.ErrorIs(t, err, pipeline.ErrInvalidFrameRate)

			assert.Empty(t, f.source.LoadCalls)
			assert.Empty(t, f.backend.OpenCalls)
			data, ok := f.fs.GetFile("/out/output.mov")
			require.True(t, ok, "previous output must be untouched")
			assert.Equal(t, "previous", string(data))
			assert.False(t, f.rec.Busy())
		})
	}
}

func TestBuildVideo_WidthNotAligned(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(2, 30, 16)

	_, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	requireCode(t, err, pipeline.CodeBuildVideoFailed)
	assert.ErrorIs(t, err, pipeline.ErrWidthNotAligned)
	assert.Empty(t, f.backend.OpenCalls)
	assert.False(t, f.rec.Busy())
}

func TestBuildVideo_EmptyList(t *testing.T) {
	f := newFixture(t)

	_, err := f.rec.BuildVideo(context.Background(), Request{FrameRate: 30})
	requireCode(t, err, pipeline.CodeBuildVideoFailed)
	assert.ErrorIs(t, err, pipeline.ErrEmptyImageList)
	assert.False(t, f.rec.Busy())
}

func TestBuildVideo_FirstImageUnreadable(t *testing.T) {
	f := newFixture(t)

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: []string{"/frames/missing.png"}, FrameRate: 30})
	assert.Nil(t, job)
	requireCode(t, err, pipeline.CodeFailedLoadImage)
	assert.ErrorIs(t, err, pipeline.ErrImageLoad)
	assert.Empty(t, f.backend.OpenCalls)
	assert.False(t, f.rec.Busy())
}

func TestBuildVideo_UnsupportedCodec(t *testing.T) {
	f := newFixture(t)
	f.backend.SupportsFunc = func(codec ports.Codec) bool { return codec == ports.CodecH264 }
	refs := f.frames(2, 32, 16)

	_, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, Format: pipeline.FormatHEVC, FrameRate: 30})
	requireCode(t, err, pipeline.CodeBuildVideoFailed)
	assert.ErrorIs(t, err, pipeline.ErrUnsupportedFormat)
	assert.Empty(t, f.source.LoadCalls)
}

func TestBuildVideo_DimensionMismatch(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(5, 32, 16)
	f.source.AddSolid(refs[2], 48, 16, blue)

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	require.NoError(t, err)

	result := wait(t, job)
	require.False(t, result.OK())
	assert.Equal(t, pipeline.CodeBuildVideoFailed, result.Err.Code)
	assert.ErrorIs(t, result.Err, pipeline.ErrDimensionsMismatch)
	assert.Empty(t, result.Location)

	assert.Len(t, drain(job), 2)
	assert.True(t, f.backend.Session().CancelCalled)
	assert.False(t, f.backend.Session().FinishCalled)
	assert.False(t, f.rec.Busy())
}

func TestBuildVideo_RemovesPreviousOutput(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(2, 32, 16)
	require.NoError(t, f.fs.WriteFile("/out/output.mov", []byte("previous")))

	f.backend.OpenFunc = func(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
		exists, err := f.fs.Exists(settings.OutputPath)
		require.NoError(t, err)
		assert.False(t, exists, "previous output should be removed before open")
		return mocks.NewEncoderSession(settings), nil
	}

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	require.NoError(t, err)
	assert.True(t, wait(t, job).OK())
	assert.Len(t, f.backend.OpenCalls, 1)
	assert.Equal(t, []string{"/out/output.mov"}, f.fs.Removed)
}

func TestBuildVideo_OpenFailure(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(2, 32, 16)
	f.backend.OpenFunc = func(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
		return nil, &ports.BackendError{Backend: "mock", Op: "open", Status: -12902}
	}

	_, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	requireCode(t, err, pipeline.CodeBuildVideoFailed)
	assert.ErrorIs(t, err, pipeline.ErrSessionOpen)

	var be *ports.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, -12902, be.Status)
	assert.False(t, f.rec.Busy())
}

func TestBuildVideo_StartWritingFailure(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(2, 32, 16)
	var session *mocks.EncoderSession
	f.backend.OpenFunc = func(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
		session = mocks.NewEncoderSession(settings)
		session.StartWritingFunc = func() error { return errors.New("disk full") }
		return session, nil
	}

	_, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	requireCode(t, err, pipeline.CodeBuildVideoFailed)
	assert.ErrorIs(t, err, pipeline.ErrSessionOpen)
	assert.True(t, session.CancelCalled)
	assert.False(t, f.rec.Busy())
}

func TestBuildVideo_Cancel(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(10, 32, 16)

	var session *mocks.EncoderSession
	f.backend.OpenFunc = func(ctx context.Context, settings ports.SessionSettings) (ports.EncoderSession, error) {
		session = mocks.NewEncoderSession(settings)
		session.ReadyFunc = func() bool { return false }
		return session, nil
	}

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	require.NoError(t, err)
	job.Cancel()

	result := wait(t, job)
	require.False(t, result.OK())
	assert.Equal(t, pipeline.CodeBuildVideoFailed, result.Err.Code)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, ports.SessionCancelled, session.Status())
	assert.Empty(t, session.Appended())
	assert.False(t, f.rec.Busy())
}

func TestBuildVideo_DebugSink(t *testing.T) {
	f := newFixtureWithSink(t, mocks.NewDebugSink(true))
	refs := f.frames(3, 32, 16)

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 30})
	require.NoError(t, err)
	require.True(t, wait(t, job).OK())

	assert.Contains(t, string(f.sink.JobJSON), `"frame_rate": 30`)
	assert.Equal(t, 3, f.sink.Frames())
}

func TestBuildVideo_Loop(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(3, 20, 10)

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, Format: pipeline.FormatGIF})
	require.NoError(t, err)
	assert.Equal(t, pipeline.FormatGIF, job.Format())

	// Already complete when returned.
	result := wait(t, job)
	require.True(t, result.OK())
	assert.Equal(t, "/out/animated.gif", result.Location)
	assert.Equal(t, 3, result.Frames)
	assert.Empty(t, drain(job))
	assert.Empty(t, f.backend.OpenCalls)
	assert.False(t, f.rec.Busy())

	data, ok := f.fs.GetFile("/out/animated.gif")
	require.True(t, ok)
	assert.Equal(t, "GIF89a", string(data[:6]))
}

func TestBuildVideo_LoopFailure(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(2, 20, 10)
	refs = append(refs, "/frames/missing.png")

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, Format: pipeline.FormatGIF})
	assert.Nil(t, job)
	requireCode(t, err, pipeline.CodeFailedLoadImage)
	assert.False(t, f.rec.Busy())

	_, err = f.rec.BuildVideo(context.Background(), Request{Format: pipeline.FormatGIF})
	requireCode(t, err, pipeline.CodeFailedLoadImage)
	assert.ErrorIs(t, err, pipeline.ErrEmptyImageList)
}

func TestBuildVideo_FeedStageError(t *testing.T) {
	f := newFixture(t)
	refs := f.frames(4, 32, 32)
	f.rec.feedStage = pipeline.StageFunc[pipeline.FeedInput, pipeline.FeedResult](
		func(ctx context.Context, in pipeline.FeedInput) (pipeline.FeedResult, error) {
			in.OnProgress(pipeline.Progress{Completed: 1, Total: int64(in.Job.FrameCount())})
			return pipeline.FeedResult{}, errors.New("disk full")
		})

	job, err := f.rec.BuildVideo(context.Background(), Request{Images: refs, FrameRate: 10})
	require.NoError(t, err)

	result := wait(t, job)
	require.False(t, result.OK())
	assert.Equal(t, pipeline.CodeBuildVideoFailed, result.Err.Code)
	assert.Contains(t, result.Err.Error(), "disk full")
	assert.Equal(t, []pipeline.Progress{{Completed: 1, Total: 4}}, drain(job))
	assert.False(t, f.rec.Busy())
}

func TestJob_WaitContext(t *testing.T) {
	job := newJob("j", pipeline.FormatH264, 1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := job.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	job.complete(pipeline.Result{JobID: "j", Location: "/x"})
	job.complete(pipeline.Result{JobID: "j", Location: "/y"})

	result, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/x", result.Location)
}

func TestPaths(t *testing.T) {
	f := newFixture(t)
	f.backend.ExtensionValue = ".mp4"
	assert.Equal(t, "/out/output.mp4", f.rec.VideoPath())
	assert.Equal(t, "/out/animated.gif", f.rec.LoopPath())
}

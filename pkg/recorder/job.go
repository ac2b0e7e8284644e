package recorder

import (
	"context"
	"sync"

	"github.com/user/framereel/pkg/pipeline"
)

// Job is one in-flight build. Progress is reported on Progress, which is
// closed before the single terminal Result is delivered on Done.
type Job struct {
	id     string
	format pipeline.Format
	total  int

	progress chan pipeline.Progress
	done     chan pipeline.Result
	finished chan struct{}
	cancel   context.CancelFunc

	once   sync.Once
	result pipeline.Result
}

func newJob(id string, format pipeline.Format, total int, cancel context.CancelFunc) *Job {
	if cancel == nil {
		cancel = func() {}
	}
	return &Job{
		id:       id,
		format:   format,
		total:    total,
		progress: make(chan pipeline.Progress, total),
		done:     make(chan pipeline.Result, 1),
		finished: make(chan struct{}),
		cancel:   cancel,
	}
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Format returns the output format being produced.
func (j *Job) Format() pipeline.Format { return j.format }

// Frames returns the number of frames in the job.
func (j *Job) Frames() int { return j.total }

// Progress returns the progress channel. Reading it is optional.
func (j *Job) Progress() <-chan pipeline.Progress { return j.progress }

// Done returns a channel that receives the terminal result once.
func (j *Job) Done() <-chan pipeline.Result { return j.done }

// Cancel asks the job to stop at its next readiness check.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the job finishes or ctx is done.
// Unlike Done it may be called any number of times.
func (j *Job) Wait(ctx context.Context) (pipeline.Result, error) {
	select {
	case <-j.finished:
		return j.result, nil
	case <-ctx.Done():
		return pipeline.Result{}, ctx.Err()
	}
}

func (j *Job) emit(p pipeline.Progress) {
	select {
	case j.progress <- p:
	default:
	}
}

func (j *Job) complete(result pipeline.Result) {
	j.once.Do(func() {
		j.result = result
		close(j.progress)
		j.done <- result
		close(j.finished)
		j.cancel()
	})
}

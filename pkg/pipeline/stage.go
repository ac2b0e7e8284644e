// Package pipeline holds the job model shared by the recorder, its stages and
// the encoder backends.
package pipeline

import "context"

// Stage is one step of a build. The recorder runs the feed stage for video
// jobs and the loop export stage for GIF jobs.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

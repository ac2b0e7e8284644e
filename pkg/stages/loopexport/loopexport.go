// Package loopexport implements the looping animated image export.
package loopexport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/user/framereel/pkg/pipeline"
	"github.com/user/framereel/pkg/ports"
)

// Stage writes a sequence of images as a looping GIF.
// Unlike video jobs it accepts frames of any size and applies no frame
// rate validation.
type Stage struct {
	source ports.ImageSource
	fs     ports.FileSystem
	logger ports.Logger
}

// NewStage creates a new loop export stage.
func NewStage(source ports.ImageSource, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		source: source,
		fs:     fs,
		logger: logger.WithComponent("loopexport"),
	}
}

// Execute loads every image, dithers it to the Plan 9 palette and writes
// the animation to input.OutputPath.
func (s *Stage) Execute(ctx context.Context, input pipeline.LoopInput) (pipeline.LoopResult, error) {
	result := pipeline.LoopResult{}

	if len(input.Images) == 0 {
		return result, pipeline.ErrEmptyImageList
	}
	if input.OutputPath == "" {
		return result, fmt.Errorf("loopexport: output path is required")
	}

	delay := DelayCentiseconds(input.FrameDelay)
	anim := &gif.GIF{
		LoopCount: input.LoopCount,
	}

	for i, ref := range input.Images {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		img, err := s.source.Load(ctx, ref)
		if err != nil {
			if errors.Is(err, pipeline.ErrImageLoad) {
				return result, err
			}
			return result, fmt.Errorf("%w: %s: %v", pipeline.ErrImageLoad, ref, err)
		}

		frame := Dither(img)
		b := frame.Bounds()
		if b.Dx() > anim.Config.Width {
			anim.Config.Width = b.Dx()
		}
		if b.Dy() > anim.Config.Height {
			anim.Config.Height = b.Dy()
		}

		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
		s.logger.Debug("Dithered frame %d/%d", i+1, len(input.Images))
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return result, fmt.Errorf("encode gif: %w", err)
	}

	if dir := filepath.Dir(input.OutputPath); dir != "" {
		if err := s.fs.MkdirAll(dir); err != nil {
			return result, fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := s.fs.WriteFile(input.OutputPath, buf.Bytes()); err != nil {
		return result, fmt.Errorf("write gif: %w", err)
	}

	s.logger.Debug("Wrote %d frames to %s (%d bytes)", len(anim.Image), input.OutputPath, buf.Len())

	result.Location = input.OutputPath
	result.Frames = len(anim.Image)
	return result, nil
}

// Dither converts img to a paletted image anchored at the origin using
// Floyd-Steinberg error diffusion.
func Dither(img image.Image) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	return dst
}

// DelayCentiseconds converts a frame delay to GIF delay units, rounding to
// the nearest hundredth of a second. Non-positive delays use
// pipeline.DefaultLoopFrameDelay.
func DelayCentiseconds(d time.Duration) int {
	if d <= 0 {
		d = pipeline.DefaultLoopFrameDelay
	}
	cs := int((d + 5*time.Millisecond) / (10 * time.Millisecond))
	if cs < 1 {
		cs = 1
	}
	return cs
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.LoopInput, pipeline.LoopResult] = (*Stage)(nil)

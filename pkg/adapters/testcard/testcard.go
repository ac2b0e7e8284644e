// Package testcard draws numbered frames for exercising the build pipeline.
package testcard

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"

	"github.com/user/framereel/pkg/ports"
)

// Options configures generated frames.
type Options struct {
	Width       int  // Frame width (default: 320)
	Height      int  // Frame height (default: 240)
	Frames      int  // Number of frames (default: 30)
	Transparent bool // Leave the background transparent

	Background color.Color // Default: dark slate
	Accent     color.Color // Ball and progress colour (default: amber)
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 320
	}
	if o.Height <= 0 {
		o.Height = 240
	}
	if o.Frames <= 0 {
		o.Frames = 30
	}
	if o.Background == nil {
		o.Background = background
	}
	if o.Accent == nil {
		o.Accent = accent
	}
	return o
}

var (
	background = color.RGBA{R: 0x20, G: 0x24, B: 0x2c, A: 0xff}
	accent     = color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	track      = color.RGBA{R: 0x4b, G: 0x55, B: 0x63, A: 0xff}
	label      = color.White
)

// Generator renders test frames.
type Generator struct {
	renderer ports.Renderer
	fs       ports.FileSystem
	logger   ports.Logger
}

// New creates a new Generator.
func New(renderer ports.Renderer, fs ports.FileSystem, logger ports.Logger) *Generator {
	return &Generator{
		renderer: renderer,
		fs:       fs,
		logger:   logger.WithComponent("testcard"),
	}
}

// Frame draws frame index of total: a ball orbiting a crosshair, a
// progress bar and the frame number.
func (g *Generator) Frame(index, total int, opts Options) image.Image {
	opts = opts.withDefaults()
	w, h := opts.Width, opts.Height

	bg := opts.Background
	if opts.Transparent {
		bg = nil
	}
	canvas := g.renderer.CreateCanvas(w, h, bg)

	canvas.DrawLine(w/2, 0, w/2, h, track, 1)
	canvas.DrawLine(0, h/2, w, h/2, track, 1)

	// Even frames carry a corner marker so dropped frames show up as a stutter.
	if index%2 == 0 {
		canvas.DrawRect(4, 4, 8, 8, label)
	}

	radius := min(w, h) / 10
	orbit := float64(min(w, h))/2 - float64(radius) - 4
	angle := 2 * math.Pi * float64(index) / float64(total)
	cx := w/2 + int(orbit*math.Cos(angle))
	cy := h/2 + int(orbit*math.Sin(angle))
	canvas.DrawCircle(cx, cy, radius, opts.Accent)

	barH := max(h/40, 2)
	canvas.DrawRoundedRect(4, h-barH-4, w-8, barH, barH/2, track)
	if total > 0 {
		filled := (w - 8) * (index + 1) / total
		canvas.DrawRoundedRect(4, h-barH-4, filled, barH, barH/2, opts.Accent)
	}

	canvas.DrawText(fmt.Sprintf("%d / %d", index+1, total), w/2, h/2, ports.TextStyle{
		FontSize: float64(h) / 8,
		Color:    label,
		Align:    ports.AlignCenter,
	})

	return canvas.ToImage()
}

// Write renders opts.Frames frames as PNG files in dir and returns their
// paths in order.
func (g *Generator) Write(ctx context.Context, dir string, opts Options) ([]string, error) {
	opts = opts.withDefaults()

	if err := g.fs.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	paths := make([]string, 0, opts.Frames)
	for i := 0; i < opts.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		img := g.Frame(i, opts.Frames, opts)
		data, err := g.renderer.EncodeImage(img, ports.FormatPNG, 0)
		if err != nil {
			return paths, fmt.Errorf("encode frame %d: %w", i, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", i))
		if err := g.fs.WriteFile(path, data); err != nil {
			return paths, fmt.Errorf("write frame %d: %w", i, err)
		}
		paths = append(paths, path)
	}

	g.logger.Debug("Wrote %d test frames (%dx%d) to %s", len(paths), opts.Width, opts.Height, dir)
	return paths, nil
}

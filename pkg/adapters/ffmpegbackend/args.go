package ffmpegbackend

import (
	"fmt"
	"strconv"

	"github.com/user/framereel/pkg/ports"
)

// buildArgs returns the ffmpeg arguments for a session. Frames arrive on
// stdin as packed ARGB at a constant rate.
func buildArgs(settings ports.SessionSettings, goos, preset string) ([]string, error) {
	if preset == "" {
		preset = "fast"
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "argb",
		"-s", fmt.Sprintf("%dx%d", settings.Width, settings.Height),
		"-framerate", strconv.Itoa(settings.FrameRate),
		"-i", "pipe:0",
	}

	switch settings.Codec {
	case ports.CodecH264:
		crf := 23
		if settings.Quality > 0 && settings.Quality <= 100 {
			// 100 maps to visually lossless, 1 to the worst x264 quality
			crf = 51 - settings.Quality*51/100
			if crf < 0 {
				crf = 0
			}
		}
		args = append(args,
			"-c:v", "libx264",
			"-preset", preset,
			"-profile:v", "baseline",
			"-level", "3.1",
			"-pix_fmt", "yuv420p",
			"-crf", strconv.Itoa(crf),
		)

	case ports.CodecHEVCAlpha:
		if goos == "darwin" && settings.PreserveAlpha {
			args = append(args,
				"-c:v", "hevc_videotoolbox",
				"-alpha_quality", "1",
				"-pix_fmt", "bgra",
			)
		} else {
			keyint := settings.MaxKeyFrameInterval
			if keyint <= 0 {
				keyint = 250
			}
			args = append(args,
				"-c:v", "libx265",
				"-preset", preset,
				"-pix_fmt", "yuv420p",
				"-x265-params", fmt.Sprintf("keyint=%d:min-keyint=%d:log-level=error", keyint, keyint),
			)
		}
		args = append(args, "-tag:v", "hvc1")

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, settings.Codec)
	}

	if settings.AverageBitRate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", settings.AverageBitRate/1000))
	}
	if settings.MaxKeyFrameInterval > 0 {
		args = append(args, "-g", strconv.Itoa(settings.MaxKeyFrameInterval))
	}

	args = append(args,
		"-r", strconv.Itoa(settings.FrameRate),
		"-movflags", "+faststart",
		settings.OutputPath,
	)
	return args, nil
}

// Package filesink dumps what a build fed to the encoder into a directory
// tree, one subdirectory per job:
//
//	<base>/<job id>/job.json
//	<base>/<job id>/frames/000000.png
//
// Frames saved before any job summary go under <base>/frames.
package filesink

import (
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/framereel/pkg/ports"
)

type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer

	mu        sync.Mutex
	jobDir    string
	framesDir string // created lazily, reset when the job changes
}

func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		jobDir:   baseDir,
	}
}

func (s *Sink) Enabled() bool {
	return true
}

// JobDir returns the directory the current job's files are written to.
func (s *Sink) JobDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobDir
}

// SaveJobJSON writes job.json and switches subsequent frames to the job's
// directory. The job is identified by the "id" field of data.
func (s *Sink) SaveJobJSON(data []byte) error {
	var header struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("filesink: job summary is not JSON: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobDir = s.baseDir
	if id := safeName(header.ID); id != "" {
		s.jobDir = filepath.Join(s.baseDir, id)
	}
	s.framesDir = ""

	if err := s.fs.MkdirAll(s.jobDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.jobDir, "job.json"), data)
}

// SaveSourceFrame writes img as a PNG named after its zero-based index.
func (s *Sink) SaveSourceFrame(index int, img image.Image) error {
	if index < 0 {
		return fmt.Errorf("filesink: negative frame index %d", index)
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("filesink: encode frame %d: %w", index, err)
	}

	dir, err := s.ensureFramesDir()
	if err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("%06d.png", index)), data)
}

func (s *Sink) ensureFramesDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.framesDir != "" {
		return s.framesDir, nil
	}
	dir := filepath.Join(s.jobDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return "", err
	}
	s.framesDir = dir
	return dir, nil
}

// safeName keeps an id usable as a single path element.
func safeName(id string) string {
	id = strings.TrimSpace(id)
	if id == "." || id == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, id)
}

var _ ports.DebugSink = (*Sink)(nil)

package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/framereel/pkg/ports"
)

// Writer writes summaries to files, picking the formatter by file extension.
type Writer struct {
	fallback Formatter
	byExt    map[string]Formatter
	fs       ports.FileSystem
}

// NewWriter creates a Writer using fallback for unregistered extensions.
// ".json" is registered with JSONFormatter.
func NewWriter(fallback Formatter, fs ports.FileSystem) *Writer {
	return &Writer{
		fallback: fallback,
		byExt:    map[string]Formatter{".json": JSONFormatter},
		fs:       fs,
	}
}

// Register uses f for paths ending in ext (case-insensitive).
func (w *Writer) Register(ext string, f Formatter) *Writer {
	w.byExt[strings.ToLower(ext)] = f
	return w
}

// FormatterFor returns the formatter Write would use for path.
func (w *Writer) FormatterFor(path string) Formatter {
	if f, ok := w.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return w.fallback
}

// Write formats summary and writes it to path.
func (w *Writer) Write(path string, summary *Summary) error {
	content := w.FormatterFor(path).Format(summary)
	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion adds the program version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Build Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(&b, "## %s\n\n", t("Results"))
	f.tableHeader(&b)
	row(&b, t("Output"), s.Video.Location)
	row(&b, t("Frame Count"), fmt.Sprintf("%d", s.Video.FrameCount))
	row(&b, t("Video Duration"), fmt.Sprintf("%.2f s", float64(s.Video.DurationMs)/1000))
	if s.Video.FileSize > 0 {
		row(&b, t("Video File Size"), formatBytes(s.Video.FileSize))
	}
	if s.Video.Codec != "" {
		row(&b, t("Codec"), s.Video.Codec)
		row(&b, t("Timescale"), fmt.Sprintf("%d", s.Video.Timescale))
	}
	if s.Video.ElapsedMs > 0 {
		row(&b, t("Build Time"), fmt.Sprintf("%d ms", s.Video.ElapsedMs))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.tableHeader(&b)
	if s.Job.ID != "" {
		row(&b, t("Job ID"), s.Job.ID)
	}
	row(&b, t("Format"), s.Job.Format)
	if s.Job.Profile != "" {
		row(&b, t("Profile"), s.Job.Profile)
	}
	row(&b, t("Images"), fmt.Sprintf("%d", s.Job.Images))
	if s.Job.FrameRate > 0 {
		row(&b, t("Frame Rate"), fmt.Sprintf("%d fps", s.Job.FrameRate))
	}
	if s.Job.Width > 0 && s.Job.Height > 0 {
		row(&b, t("Frame Size"), fmt.Sprintf("%dx%d", s.Job.Width, s.Job.Height))
	}
	if s.Encoder.Backend != "" {
		backend := s.Encoder.Backend
		if s.Encoder.FallbackUsed {
			backend += " (" + t("fallback") + ")"
		}
		row(&b, t("Backend"), backend)
	}
	if e := s.Encoder; e.OutputCodec != "" && e.Codec != "" && e.OutputCodec != e.Codec {
		row(&b, t("Encoder Codec"), fmt.Sprintf("%s (%s %s)", e.OutputCodec, t("requested"), e.Codec))
	}
	b.WriteString("\n")

	b.WriteString("---\n")
	footer := t("Generated by") + " framereel"
	if f.version != "" {
		footer += " " + f.version
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) tableHeader(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|------|-------|\n")
}

func row(b *strings.Builder, item, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", item, strings.ReplaceAll(value, "|", `\|`))
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)

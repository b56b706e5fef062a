package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

// Format names a report output format.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("report: unknown format")

// ParseFormat parses a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Writer renders a run report.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report progress.Report) (int, error)
}

// New returns the writer for format.
func New(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes the same report to several Writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer, stopping on the first error.
func (m *MultiWriter) Write(report progress.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// status returns a one-word outcome for the run.
func status(r progress.Report) string {
	switch {
	case r.DryRun:
		return "dry run"
	case r.Failed > 0:
		return "completed with failures"
	default:
		return "completed"
	}
}

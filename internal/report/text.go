package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

const rule = "============================================================"

// TextWriter prints the run summary as aligned plain text.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary.
func (w *TextWriter) Write(r progress.Report) (int, error) {
	var b strings.Builder

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "MIGRATION %s\n", strings.ToUpper(status(r)))
	fmt.Fprintf(&b, "Total time:    %.2f seconds\n", r.Elapsed.Seconds())
	fmt.Fprintf(&b, "Records:       %d in %d batches\n", r.Records, r.Batches)
	fmt.Fprintf(&b, "Total images:  %d\n", r.Total)
	fmt.Fprintf(&b, "Success:       %d\n", r.Success)
	fmt.Fprintf(&b, "Skipped:       %d\n", r.Skipped)
	fmt.Fprintf(&b, "Failed:        %d\n", r.Failed)
	if r.DryRun {
		fmt.Fprintf(&b, "Pending:       %d\n", r.Pending)
	}
	fmt.Fprintf(&b, "Average speed: %.2f images/second\n", r.Throughput())
	b.WriteString(rule + "\n")

	return io.WriteString(w.output, b.String())
}

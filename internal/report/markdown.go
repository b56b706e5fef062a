package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as a Markdown document.
func (w *MarkdownWriter) Write(r progress.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, r)
	w.writeCounts(md, r)
	w.writeAlert(md, r)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, r progress.Report) {
	md.H1("Media Migration Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", r.Started.Format("2006-01-02 15:04:05 MST")},
			{"Finished", r.Finished().Format("2006-01-02 15:04:05 MST")},
			{"Duration", progress.FormatDuration(r.Elapsed)},
			{"Records", strconv.Itoa(r.Records)},
			{"Batches", strconv.Itoa(r.Batches)},
			{"Throughput", fmt.Sprintf("%.2f images/s", r.Throughput())},
			{"Status", status(r)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, r progress.Report) {
	md.H2("Outcomes")
	md.PlainText("")

	rows := [][]string{
		{"Uploaded", strconv.Itoa(r.Success)},
		{"Skipped", strconv.Itoa(r.Skipped)},
		{"Failed", strconv.Itoa(r.Failed)},
	}
	if r.DryRun {
		rows = append(rows, []string{"Pending", strconv.Itoa(r.Pending)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(r.Total) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Images"},
		Rows:   rows,
	})
	md.PlainText("")

	if r.Total > 0 {
		w.writePieChart(md, r)
	}
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, r progress.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if r.Success > 0 {
		chart.LabelAndIntValue("Uploaded", uint64(r.Success))
	}
	if r.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(r.Skipped))
	}
	if r.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(r.Failed))
	}
	if r.Pending > 0 {
		chart.LabelAndIntValue("Pending", uint64(r.Pending))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, r progress.Report) {
	switch {
	case r.DryRun:
		md.Note(fmt.Sprintf("Dry run: %d image(s) would be uploaded. Nothing was written.", r.Pending))
	case r.Failed > 0:
		md.Warningf("%d image(s) could not be migrated. Re-run to retry them; uploaded images are skipped.", r.Failed)
	case r.Total == 0:
		md.Note("No images found in the source collection.")
	default:
		md.Tip("All images are present in the bucket.")
	}
	md.PlainText("")
}

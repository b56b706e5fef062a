package report

import (
	"encoding/json"
	"io"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the serialized form of a run report with derived fields.
type JSONReport struct {
	progress.Report

	Status         string  `json:"status"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Throughput     float64 `json:"images_per_second"`
}

// NewJSONReport wraps r with its derived fields.
func NewJSONReport(r progress.Report) JSONReport {
	return JSONReport{
		Report:         r,
		Status:         status(r),
		ElapsedSeconds: r.Elapsed.Seconds(),
		Throughput:     r.Throughput(),
	}
}

// Write outputs the report as one JSON document followed by a newline.
func (w *JSONWriter) Write(r progress.Report) (int, error) {
	var (
		data []byte
		err  error
	)

	v := NewJSONReport(r)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

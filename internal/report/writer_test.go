package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

func createTestReport() progress.Report {
	return progress.Report{
		Counts:  model.Counts{Total: 120, Success: 100, Skipped: 15, Failed: 5},
		Records: 80,
		Batches: 2,
		Started: time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC),
		Elapsed: 60 * time.Second,
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("ParseFormat(%q): expected ErrUnknownFormat, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.input, got, err, tt.expected)
		}
	}
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewTextWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"MIGRATION COMPLETED WITH FAILURES",
			"Total images:  120",
			"Success:       100",
			"Skipped:       15",
			"Failed:        5",
			"Average speed: 2.00 images/second",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Pending") {
			t.Error("pending line must only appear for dry runs")
		}
	})

	t.Run("dry run shows pending", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.DryRun = true
		r.Counts = model.Counts{Total: 10, Skipped: 4, Pending: 6}

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Pending:       6") {
			t.Errorf("expected pending count, got:\n%s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed map[string]any
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		checks := map[string]float64{
			"total":             120,
			"success":           100,
			"skipped":           15,
			"failed":            5,
			"batches":           2,
			"elapsed_seconds":   60,
			"images_per_second": 2,
		}
		for key, want := range checks {
			got, ok := parsed[key].(float64)
			if !ok || got != want {
				t.Errorf("%s = %v, want %v", key, parsed[key], want)
			}
		}
		if parsed["status"] != "completed with failures" {
			t.Errorf("unexpected status %v", parsed["status"])
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected single-line JSON, got:\n%s", buf.String())
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"total\": 120") {
			t.Errorf("expected indented JSON, got:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Media Migration Report",
			"2024-05-02 09:31:00 UTC",
			"## Outcomes",
			"| Uploaded",
			"**120**",
			"mermaid",
			"[!WARNING]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("empty run has no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(progress.Report{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("expected no chart for an empty run")
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	for _, f := range []Format{FormatText, FormatJSON, FormatMarkdown} {
		w, err := New(f, &buf)
		if err != nil || w == nil {
			t.Errorf("New(%q) = %v, %v", f, w, err)
		}
	}
	if _, err := New("yaml", &buf); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewTextWriter(&text), NewJSONWriter(&js))

	n, err := mw.Write(createTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected output from both writers")
	}
}

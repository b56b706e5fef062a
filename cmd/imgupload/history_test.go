package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/history"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/report"
)

func sampleEntries() []history.Entry {
	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return []history.Entry{
		{
			ID:     2,
			Source: "catalog.products",
			Bucket: "product-images",
			Report: progress.Report{
				Counts:  model.Counts{Total: 10, Success: 7, Skipped: 2, Failed: 1},
				Started: started.Add(time.Hour),
				Elapsed: 90 * time.Second,
			},
		},
		{
			ID:     1,
			Source: "catalog.products",
			Bucket: "product-images",
			Report: progress.Report{Started: started},
			Error:  "mongodb: connection refused",
		},
	}
}

func TestEntryStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry history.Entry
		want  string
	}{
		{name: "completed", entry: history.Entry{}, want: "completed"},
		{name: "failures", entry: history.Entry{Report: progress.Report{Counts: model.Counts{Failed: 1}}}, want: "completed with failures"},
		{name: "dry run", entry: history.Entry{Report: progress.Report{DryRun: true}}, want: "dry run"},
		{name: "aborted", entry: history.Entry{Error: "boom"}, want: "aborted: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := entryStatus(tt.entry); got != tt.want {
				t.Errorf("entryStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintHistory(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := printHistory(&buf, report.FormatText, sampleEntries()); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
		}
		if !strings.HasPrefix(lines[0], "ID") {
			t.Errorf("header = %q", lines[0])
		}
		if !strings.Contains(lines[1], "completed with failures") {
			t.Errorf("row 1 = %q", lines[1])
		}
		if !strings.Contains(lines[2], "aborted: mongodb: connection refused") {
			t.Errorf("row 2 = %q", lines[2])
		}
	})

	t.Run("text empty", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := printHistory(&buf, report.FormatText, nil); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No runs recorded.") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := printHistory(&buf, report.FormatJSON, sampleEntries()); err != nil {
			t.Fatal(err)
		}
		var got []history.Entry
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got[0].Report.Success != 7 || got[1].Error == "" {
			t.Errorf("decoded = %+v", got)
		}
	})

	t.Run("json empty is an array", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := printHistory(&buf, report.FormatJSON, nil); err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("output = %q, want []", buf.String())
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := printHistory(&buf, report.FormatMarkdown, sampleEntries()); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "# Migration History") {
			t.Errorf("missing heading in %q", out)
		}
		if !strings.Contains(out, "| catalog.products") && !strings.Contains(out, "catalog.products |") {
			t.Errorf("missing table row in %q", out)
		}
	})
}

func TestHistoryCmdListsRecordedRuns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ledger, err := history.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range sampleEntries() {
		if _, err := ledger.Record(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}
	if err := ledger.Close(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"history", "--history-dir", dir, "--limit", "1", "--format", "json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("history: %v", err)
	}

	var got []history.Entry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].Report.Success != 7 {
		t.Errorf("newest entry = %+v, want the run with 7 uploads", got[0])
	}
}

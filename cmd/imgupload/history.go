package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/history"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/report"
)

// NewHistoryCmd creates the history subcommand.
func NewHistoryCmd() *cobra.Command {
	var (
		dir    string
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs",
		Long:  `List previous runs recorded by "imgupload run", newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("%w: %d", errNegativeLimit, limit)
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = history.DefaultDir()
			}

			ledger, err := history.Open(dir)
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), f, entries)
		},
	}

	cmd.Flags().StringVar(&dir, "history-dir", "", "Directory of the run history (default: XDG data dir)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 = all)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, markdown)")

	return cmd
}

// historyHeader is shared by the text and markdown tables.
var historyHeader = []string{"ID", "STARTED", "SOURCE", "BUCKET", "TOTAL", "OK", "SKIPPED", "FAILED", "DURATION", "STATUS"}

func historyRow(e history.Entry) []string {
	r := e.Report
	return []string{
		strconv.FormatInt(e.ID, 10),
		r.Started.Local().Format("2006-01-02 15:04:05"),
		e.Source,
		e.Bucket,
		strconv.Itoa(r.Total),
		strconv.Itoa(r.Success),
		strconv.Itoa(r.Skipped),
		strconv.Itoa(r.Failed),
		progress.FormatDuration(r.Elapsed),
		entryStatus(e),
	}
}

func entryStatus(e history.Entry) string {
	switch {
	case !e.OK():
		return "aborted: " + e.Error
	case e.Report.DryRun:
		return "dry run"
	case e.Report.Failed > 0:
		return "completed with failures"
	default:
		return "completed"
	}
}

// printHistory renders entries in the given format.
func printHistory(w io.Writer, format report.Format, entries []history.Entry) error {
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []history.Entry{}
		}
		return enc.Encode(entries)

	case report.FormatMarkdown:
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, historyRow(e))
		}
		md := markdown.NewMarkdown(w)
		md.H1("Migration History")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: historyHeader, Rows: rows})
		return md.Build()

	default:
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No runs recorded.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(historyHeader, "\t"))
		for _, e := range entries {
			fmt.Fprintln(tw, strings.Join(historyRow(e), "\t"))
		}
		return tw.Flush()
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/commit"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/config"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/downloader"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/history"
	mediahttp "github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/http"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/index"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/migrate"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/report"
)

var errNegativeLimit = errors.New("--limit must not be negative")

// runOptions holds the flags of the run command that are not configuration.
type runOptions struct {
	dryRun       bool
	limit        int64
	progress     bool
	reportFormat string
	reportFile   string
	historyDir   string
	noHistory    bool
}

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	var (
		opts     runOptions
		override config.Config
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate all referenced images into the bucket",
		Long: `Read the source collection page by page, download every referenced image
that is not yet in the bucket and write it as {productId}_{type}.jpg.

A summary is printed at the end. Individual download or upload failures do
not fail the run; only configuration, connection or source errors do.`,
		Example: `  # Full run with settings from the environment
  imgupload run

  # Preview what would be migrated
  imgupload run --dry-run --limit 1000

  # Local test against a directory instead of GCS
  BUCKET_NAME=file:///tmp/images imgupload run --progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigration(cmd, override, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&override.Bucket, "bucket", "", "Destination bucket name or URL (overrides BUCKET_NAME)")
	flags.StringVar(&override.Database, "database", "", "Source database (overrides DB_NAME)")
	flags.StringVar(&override.Collection, "collection", "", "Source collection (overrides COLLECTION_NAME)")
	flags.StringVar(&override.ObjectPrefix, "prefix", "", "Key prefix inside the bucket")
	flags.IntVarP(&override.Concurrency, "concurrency", "c", 0, "Maximum concurrent downloads")
	flags.IntVar(&override.PageSize, "page-size", 0, "Records read per page")
	flags.IntVar(&override.CommitBatchSize, "upload-batch-size", 0, "Uploads per sub-batch")
	flags.IntVar(&override.MaxRetries, "max-retries", 0, "Download attempts per image")

	flags.BoolVar(&opts.dryRun, "dry-run", false, "Count pending images without downloading or writing")
	flags.Int64Var(&opts.limit, "limit", 0, "Process at most this many records (0 = all)")
	flags.BoolVar(&opts.progress, "progress", false, "Show download progress on stderr")
	flags.StringVarP(&opts.reportFormat, "format", "f", "text", "Summary format (text, json, markdown)")
	flags.StringVarP(&opts.reportFile, "output", "o", "", "Also write the summary to this file")
	flags.StringVar(&opts.historyDir, "history-dir", "", "Directory of the run history (default: XDG data dir)")
	flags.BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the history")

	return cmd
}

// runMigration wires the pipeline together and runs it once.
func runMigration(cmd *cobra.Command, override config.Config, opts runOptions) error {
	if opts.limit < 0 {
		return fmt.Errorf("%w: %d", errNegativeLimit, opts.limit)
	}
	format, err := report.ParseFormat(opts.reportFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, override)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, true)
	if err != nil {
		return err
	}
	defer logger.Close()

	if path := logger.Path(); path != "" {
		logger.Info("logging to file", "path", path)
	}
	logger.Info("starting migration", "config", cfg, "dry_run", opts.dryRun, "limit", opts.limit)

	ctx := cmd.Context()

	src, st, err := openEndpoints(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer closeEndpoints(src, st, logger.Logger)

	started := time.Now()
	result, runErr := migrateOnce(ctx, cfg, opts, src, st, cmd.ErrOrStderr(), logger.Logger)

	if !opts.noHistory {
		if result.Started.IsZero() {
			result.Started = started
			result.Elapsed = time.Since(started)
			result.DryRun = opts.dryRun
		}
		recordHistory(ctx, opts.historyDir, history.Entry{
			Source: src.Name(),
			Bucket: st.Name(),
			Report: result,
			Error:  errorText(runErr),
		}, logger.Logger)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("migration interrupted: %w", runErr)
		}
		return fmt.Errorf("migration failed: %w", runErr)
	}

	logger.Info("migration finished",
		"total", result.Total,
		"success", result.Success,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"elapsed", progress.FormatDuration(result.Elapsed),
	)

	return writeReport(cmd.OutOrStdout(), format, opts.reportFile, result)
}

// commitStore is what the writer and the index loader need from the bucket.
// *store.Store satisfies it.
type commitStore interface {
	commit.ObjectStore
	index.Lister
}

// migrateOnce builds the index and the pipeline stages and runs the
// orchestrator. The progress display, when enabled, writes to progressOut.
func migrateOnce(ctx context.Context, cfg config.Config, opts runOptions, src migrate.Source, st commitStore, progressOut io.Writer, logger *slog.Logger) (progress.Report, error) {
	idx := index.Load(ctx, st, logger)

	client := mediahttp.NewClient(mediahttp.Options{
		MaxIdleConnsPerHost: cfg.Concurrency,
		Timeout:             cfg.RequestTimeout,
		MaxAttempts:         cfg.MaxRetries,
		RetryDelay:          cfg.RetryDelay,
		MaxBodySize:         cfg.MaxBodySize,
		UserAgent:           cfg.UserAgent,
		Logger:              logger,
	})

	var observer downloader.Observer
	if opts.progress && !opts.dryRun {
		reporter := progress.NewReporter(progress.Options{
			Workers: cfg.Concurrency,
			Output:  progressOut,
		})
		reporter.Start()
		defer reporter.Stop()
		observer = reporter
	}

	scheduler := downloader.New(client, downloader.Options{
		Concurrency: cfg.Concurrency,
		Progress:    observer,
		Logger:      logger,
	})

	logger.Info("pipeline ready",
		"known_objects", idx.Len(),
		"concurrency", scheduler.Concurrency(),
		"page_size", cfg.PageSize,
		"upload_batch_size", cfg.CommitBatchSize,
	)

	writer := commit.NewWriter(st, idx, commit.Options{
		WritePause:    cfg.WritePause,
		SubBatchPause: cfg.SubBatchPause,
		Logger:        logger,
	})

	orch := migrate.New(src, idx, scheduler, writer, migrate.Options{
		PageSize:     int64(cfg.PageSize),
		SubBatchSize: cfg.CommitBatchSize,
		BatchPause:   cfg.BatchPause,
		Limit:        opts.limit,
		DryRun:       opts.dryRun,
		Logger:       logger,
	})

	return orch.Run(ctx)
}

// writeReport renders the summary to out and, when path is set, to that file
// as well.
func writeReport(out io.Writer, format report.Format, path string, result progress.Report) error {
	writers := make([]report.Writer, 0, 2)

	w, err := report.New(format, out)
	if err != nil {
		return err
	}
	writers = append(writers, w)

	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()

		fw, err := report.New(format, f)
		if err != nil {
			return err
		}
		writers = append(writers, fw)
	}

	if _, err := report.NewMultiWriter(writers...).Write(result); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// recordHistory appends the run to the ledger. Failures are logged only.
func recordHistory(ctx context.Context, dir string, e history.Entry, logger *slog.Logger) {
	if dir == "" {
		dir = history.DefaultDir()
	}

	ledger, err := history.Open(dir)
	if err != nil {
		logger.Warn("failed to open run history", "dir", dir, "error", err)
		return
	}
	defer ledger.Close()

	// Record even when ctx was cancelled by an interrupt.
	id, err := ledger.Record(context.WithoutCancel(ctx), e)
	if err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	logger.Debug("run recorded", "id", id, "path", ledger.Path())
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

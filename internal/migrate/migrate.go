package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/index"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

// Defaults for Options.
const (
	DefaultPageSize     = 500
	DefaultSubBatchSize = 50
)

// Source reads records page by page. *source.Collection satisfies it.
type Source interface {
	Count(ctx context.Context) (int64, error)
	Page(ctx context.Context, skip, limit int64) ([]model.Record, error)
}

// Downloader fetches a page worth of references. *downloader.Scheduler
// satisfies it.
type Downloader interface {
	FetchAll(ctx context.Context, refs []model.MediaReference) []model.FetchResult
}

// Committer writes downloaded assets. *commit.Writer satisfies it.
type Committer interface {
	Commit(ctx context.Context, results []model.FetchResult, subBatchSize int) (model.Counts, error)
}

// Options configures a run.
type Options struct {
	// PageSize is the number of records read per page.
	PageSize int64

	// SubBatchSize is passed to the committer.
	SubBatchSize int

	// BatchPause is slept between pages, not after the last one.
	BatchPause time.Duration

	// Limit caps the number of records processed. 0 means no limit.
	Limit int64

	// DryRun extracts and pre-filters references but neither downloads nor
	// writes. Candidates are counted as pending.
	DryRun bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Orchestrator runs the page loop.
type Orchestrator struct {
	source     Source
	index      *index.Index
	downloader Downloader
	committer  Committer
	opts       Options
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// New creates an Orchestrator. The index is shared with the committer and is
// only touched from the goroutine calling Run.
func New(src Source, idx *index.Index, dl Downloader, cm Committer, opts Options) *Orchestrator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.SubBatchSize <= 0 {
		opts.SubBatchSize = DefaultSubBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		source:     src,
		index:      idx,
		downloader: dl,
		committer:  cm,
		opts:       opts,
		sleep:      sleepContext,
		now:        time.Now,
	}
}

// Run processes every page and returns the run report.
//
// Per-asset failures are counted, not returned. An error is returned only when
// the source fails or ctx is cancelled; the partial report is discarded.
func (o *Orchestrator) Run(ctx context.Context) (progress.Report, error) {
	log := o.opts.Logger
	report := progress.Report{
		Started: o.now(),
		DryRun:  o.opts.DryRun,
	}

	total, err := o.source.Count(ctx)
	if err != nil {
		return progress.Report{}, fmt.Errorf("migrate: count records: %w", err)
	}
	if o.opts.Limit > 0 && o.opts.Limit < total {
		log.Info("record limit applied", "records", total, "limit", o.opts.Limit)
		total = o.opts.Limit
	}

	if total == 0 {
		log.Warn("no records found")
		report.Elapsed = o.now().Sub(report.Started)
		return report, nil
	}

	pages := (total + o.opts.PageSize - 1) / o.opts.PageSize
	log.Info("starting migration",
		"records", total,
		"pages", pages,
		"page_size", o.opts.PageSize,
		"dry_run", o.opts.DryRun,
	)

	for page := range pages {
		if err := ctx.Err(); err != nil {
			return progress.Report{}, err
		}

		skip := page * o.opts.PageSize
		limit := min(o.opts.PageSize, total-skip)
		plog := log.With("page", page+1, "pages", pages)

		recs, err := o.source.Page(ctx, skip, limit)
		if err != nil {
			return progress.Report{}, fmt.Errorf("migrate: read page %d: %w", page+1, err)
		}

		if len(recs) == 0 {
			plog.Warn("empty page, skipping", "skip", skip)
		} else {
			counts, err := o.processPage(ctx, plog, recs)
			if err != nil {
				return progress.Report{}, err
			}

			report.Records += len(recs)
			report.Batches++
			report.Counts = report.Counts.Add(counts)

			plog.Info("page complete",
				"records", len(recs),
				"total", counts.Total,
				"success", counts.Success,
				"skipped", counts.Skipped,
				"failed", counts.Failed,
				"pending", counts.Pending,
			)
		}

		if page < pages-1 {
			if err := o.sleep(ctx, o.opts.BatchPause); err != nil {
				return progress.Report{}, err
			}
		}
	}

	report.Elapsed = o.now().Sub(report.Started)
	return report, nil
}

// processPage runs one page through pre-filter, download and commit.
func (o *Orchestrator) processPage(ctx context.Context, log *slog.Logger, recs []model.Record) (model.Counts, error) {
	refs, ownerless := model.References(recs)
	if ownerless > 0 {
		log.Debug("records without owner skipped", "count", ownerless)
	}

	var candidates []model.MediaReference
	known := 0
	for _, ref := range refs {
		if o.index.Contains(ref.Key()) {
			known++
			continue
		}
		candidates = append(candidates, ref)
	}

	counts := model.SkippedN(known)
	if len(candidates) == 0 {
		return counts, nil
	}

	if o.opts.DryRun {
		for _, ref := range candidates {
			log.Info("would migrate", "key", ref.Key(), "url", ref.SourceURL)
		}
		return counts.Add(model.Counts{Total: len(candidates), Pending: len(candidates)}), nil
	}

	results := o.downloader.FetchAll(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return counts, err
	}

	fetched := make([]model.FetchResult, 0, len(results))
	for _, r := range results {
		if r.OK() {
			fetched = append(fetched, r)
		}
	}
	counts = counts.Add(model.FailedN(len(results) - len(fetched)))

	log.Info("downloads finished",
		"downloaded", len(fetched),
		"absent", len(results)-len(fetched),
		"already_present", known,
	)

	committed, err := o.committer.Commit(ctx, fetched, o.opts.SubBatchSize)
	if err != nil {
		return counts, err
	}
	return counts.Add(committed), nil
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package downloader

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 10

// Fetcher downloads a single asset. *http.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Observer receives per-asset progress notifications. Methods are called from
// worker goroutines and must be safe for concurrent use.
// *progress.Reporter satisfies it.
type Observer interface {
	AssetStarted()
	AssetCompleted(size int64)
	AssetFailed()
}

// queueObserver is implemented by observers that also track how many assets
// have been handed to the scheduler.
type queueObserver interface {
	AssetsQueued(n int)
}

// Options configures the scheduler.
type Options struct {
	// Concurrency is the maximum number of fetches in flight.
	Concurrency int

	// Progress is an optional observer.
	Progress Observer

	// Logger is used for page-level logging. Default: slog.Default().
	Logger *slog.Logger
}

// Scheduler fans fetches out under a fixed concurrency ceiling.
type Scheduler struct {
	fetcher Fetcher
	opts    Options
}

// New creates a Scheduler.
func New(fetcher Fetcher, opts Options) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{fetcher: fetcher, opts: opts}
}

// Concurrency returns the admission limit.
func (s *Scheduler) Concurrency() int {
	return s.opts.Concurrency
}

// FetchAll downloads every reference and returns exactly one result per input,
// at the same index. At most Concurrency fetches run at once regardless of
// len(refs).
//
// Workers write only their own slot of the result slice; they never touch
// shared state. A fetch failure becomes an absent result, it does not stop the
// other workers. If ctx is cancelled, references not yet started are returned
// as absent with the context error.
func (s *Scheduler) FetchAll(ctx context.Context, refs []model.MediaReference) []model.FetchResult {
	results := make([]model.FetchResult, len(refs))
	if len(refs) == 0 {
		return results
	}

	s.opts.Logger.Info("starting downloads",
		"assets", len(refs),
		"concurrency", s.opts.Concurrency,
	)
	if q, ok := s.opts.Progress.(queueObserver); ok {
		q.AssetsQueued(len(refs))
	}

	// A plain Group, not WithContext: one failed asset must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	for i, ref := range refs {
		results[i].Ref = ref

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		g.Go(func() error {
			results[i] = s.fetchOne(ctx, ref)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors

	return results
}

// fetchOne runs the fetcher for one reference.
func (s *Scheduler) fetchOne(ctx context.Context, ref model.MediaReference) model.FetchResult {
	if s.opts.Progress != nil {
		s.opts.Progress.AssetStarted()
	}

	data, err := s.fetcher.Fetch(ctx, ref.SourceURL)
	if err != nil {
		if s.opts.Progress != nil {
			s.opts.Progress.AssetFailed()
		}
		s.opts.Logger.Warn("download failed",
			"key", ref.Key(),
			"url", ref.SourceURL,
			"error", err,
		)
		return model.FetchResult{Ref: ref, Err: err}
	}

	if s.opts.Progress != nil {
		s.opts.Progress.AssetCompleted(int64(len(data)))
	}
	s.opts.Logger.Debug("downloaded", "key", ref.Key(), "bytes", len(data))

	return model.FetchResult{Ref: ref, Data: data}
}

package commit

import (
	"context"
	"log/slog"
	"time"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/index"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/store"
)

// ObjectStore is the part of the destination store the writer needs.
// *store.Store satisfies it.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
}

// Options configures the writer.
type Options struct {
	// WritePause is slept after every write attempt.
	WritePause time.Duration

	// SubBatchPause is slept between sub-batches, not after the last one.
	SubBatchPause time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// outcome is the terminal state of one asset.
type outcome int

const (
	written outcome = iota
	skipped
	failed
)

// Writer commits fetch results to the store and keeps the index current.
type Writer struct {
	store ObjectStore
	index *index.Index
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWriter creates a Writer. The index is mutated as objects are confirmed.
func NewWriter(st ObjectStore, idx *index.Index, opts Options) *Writer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Writer{
		store: st,
		index: idx,
		opts:  opts,
		sleep: sleepContext,
	}
}

// Commit processes results in sub-batches of subBatchSize and returns the
// tally. Results that are not OK are counted as failed without any store call.
//
// Per-asset errors never escape: they become counts. The returned error is
// non-nil only when ctx is cancelled; assets not yet reached are then left out
// of the counts.
func (w *Writer) Commit(ctx context.Context, results []model.FetchResult, subBatchSize int) (model.Counts, error) {
	if subBatchSize <= 0 {
		subBatchSize = len(results)
	}

	var total model.Counts
	for start := 0; start < len(results); start += subBatchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		end := min(start+subBatchSize, len(results))
		counts, err := w.commitSubBatch(ctx, results[start:end])
		total = total.Add(counts)
		if err != nil {
			return total, err
		}

		w.opts.Logger.Info("sub-batch committed",
			"from", start+1,
			"to", end,
			"of", len(results),
			"success", counts.Success,
			"skipped", counts.Skipped,
			"failed", counts.Failed,
		)

		if end < len(results) {
			if err := w.sleep(ctx, w.opts.SubBatchPause); err != nil {
				return total, err
			}
		}
	}

	return total, nil
}

// commitSubBatch commits one chunk sequentially.
func (w *Writer) commitSubBatch(ctx context.Context, results []model.FetchResult) (model.Counts, error) {
	var c model.Counts
	for _, r := range results {
		c.Total++

		if !r.OK() {
			c.Failed++
			continue
		}

		o, wrote := w.commitOne(ctx, r)
		switch o {
		case written:
			c.Success++
		case skipped:
			c.Skipped++
		case failed:
			c.Failed++
		}

		if wrote {
			if err := w.sleep(ctx, w.opts.WritePause); err != nil {
				return c, err
			}
		}
	}
	return c, nil
}

// commitOne runs the two-phase existence check and the write for one asset.
// The second return value reports whether a write was attempted.
func (w *Writer) commitOne(ctx context.Context, r model.FetchResult) (outcome, bool) {
	key := r.Ref.Key()
	log := w.opts.Logger.With("key", key)

	if w.index.Contains(key) {
		log.Debug("skip, already in index")
		return skipped, false
	}

	exists, err := w.store.Exists(ctx, key)
	if err != nil {
		log.Error("existence check failed", "code", store.ErrorCode(err), "error", err)
		return failed, false
	}
	if exists {
		w.index.Add(key)
		log.Info("skip, already in bucket")
		return skipped, false
	}

	if err := w.store.Write(ctx, key, r.Data, model.ContentType); err != nil {
		log.Error("upload failed", "code", store.ErrorCode(err), "error", err)
		return failed, true
	}

	w.index.Add(key)
	log.Info("uploaded", "bytes", len(r.Data))
	return written, true
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

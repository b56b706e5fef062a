package index

import (
	"context"
	"log/slog"
	"time"
)

// Lister enumerates every key in the destination store. *store.Store satisfies it.
type Lister interface {
	ListKeys(ctx context.Context) ([]string, error)
}

// Index is a set of destination keys. It is not safe for concurrent use; only
// the orchestrating goroutine reads or mutates it.
type Index struct {
	keys map[string]struct{}
}

// New returns an empty index.
func New() *Index {
	return &Index{keys: make(map[string]struct{})}
}

// FromKeys returns an index containing keys.
func FromKeys(keys []string) *Index {
	idx := &Index{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		idx.keys[k] = struct{}{}
	}
	return idx
}

// Load lists the destination store once and returns the keys as an index.
// If the listing fails the index starts empty and the failure is logged: the
// run then relies on the per-object existence check in the commit writer.
func Load(ctx context.Context, lister Lister, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	keys, err := lister.ListKeys(ctx)
	if err != nil {
		logger.Warn("existence index load failed, continuing with an empty index",
			"error", err,
		)
		return New()
	}

	idx := FromKeys(keys)
	logger.Info("existence index loaded",
		"keys", idx.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return idx
}

// Contains reports whether key is known to exist.
func (i *Index) Contains(key string) bool {
	_, ok := i.keys[key]
	return ok
}

// Add records key as existing.
func (i *Index) Add(key string) {
	i.keys[key] = struct{}{}
}

// Len returns the number of known keys.
func (i *Index) Len() int {
	return len(i.keys)
}

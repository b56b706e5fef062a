package commit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/index"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/store"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// countingStore wraps a mem:// store and counts calls, optionally failing them.
type countingStore struct {
	*store.Store
	checks     int
	writes     int
	failWrite  func(key string) bool
	failExists func(key string) bool
}

func (s *countingStore) Exists(ctx context.Context, key string) (bool, error) {
	s.checks++
	if s.failExists != nil && s.failExists(key) {
		return false, errors.New("exists check unavailable")
	}
	return s.Store.Exists(ctx, key)
}

func (s *countingStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	s.writes++
	if s.failWrite != nil && s.failWrite(key) {
		return errors.New("write rejected")
	}
	return s.Store.Write(ctx, key, data, contentType)
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()

	bkt, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	st := store.New(bkt, "mem")
	t.Cleanup(func() { st.Close() })
	return &countingStore{Store: st}
}

func okResult(owner, kind string) model.FetchResult {
	return model.FetchResult{
		Ref:  model.MediaReference{OwnerID: owner, Kind: kind, SourceURL: "http://x/" + owner + ".jpg"},
		Data: []byte("jpeg:" + owner),
	}
}

func newTestWriter(st ObjectStore, idx *index.Index) (*Writer, *[]time.Duration) {
	w := NewWriter(st, idx, Options{
		WritePause:    100 * time.Millisecond,
		SubBatchPause: time.Second,
		Logger:        discardLogger,
	})
	var pauses []time.Duration
	w.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return ctx.Err()
	}
	return w, &pauses
}

func TestCommitWritesNewObjects(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore(t)
	idx := index.New()
	w, _ := newTestWriter(st, idx)

	counts, err := w.Commit(ctx, []model.FetchResult{okResult("P1", "main")}, 10)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if counts != (model.Counts{Total: 1, Success: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if !idx.Contains("P1_main.jpg") {
		t.Error("expected key to be added to index after write")
	}

	data, err := st.Store.ListKeys(ctx)
	if err != nil || len(data) != 1 || data[0] != "P1_main.jpg" {
		t.Errorf("expected P1_main.jpg in bucket, got %v (err %v)", data, err)
	}
}

func TestCommitSkipsIndexedWithoutExistenceCheck(t *testing.T) {
	st := newCountingStore(t)
	idx := index.FromKeys([]string{"P1_main.jpg"})
	w, _ := newTestWriter(st, idx)

	counts, err := w.Commit(context.Background(), []model.FetchResult{okResult("P1", "main")}, 10)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if counts != (model.Counts{Total: 1, Skipped: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if st.checks != 0 || st.writes != 0 {
		t.Errorf("expected no store calls, got %d existence checks and %d writes", st.checks, st.writes)
	}
}

func TestCommitSkipsObjectFoundByExistenceCheck(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore(t)
	if err := st.Store.Write(ctx, "P1_main.jpg", []byte("external"), "image/jpeg"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	idx := index.New()
	w, _ := newTestWriter(st, idx)

	counts, err := w.Commit(ctx, []model.FetchResult{okResult("P1", "main")}, 10)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if counts != (model.Counts{Total: 1, Skipped: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if st.checks != 1 || st.writes != 0 {
		t.Errorf("expected 1 existence check and no write, got %d existence checks and %d writes", st.checks, st.writes)
	}
	if !idx.Contains("P1_main.jpg") {
		t.Error("expected checked key to be added to index")
	}
}

func TestCommitWriteFailureIsNotRetried(t *testing.T) {
	st := newCountingStore(t)
	st.failWrite = func(key string) bool { return key == "P2_main.jpg" }
	idx := index.New()
	w, _ := newTestWriter(st, idx)

	results := []model.FetchResult{okResult("P1", "main"), okResult("P2", "main"), okResult("P3", "main")}
	counts, err := w.Commit(context.Background(), results, 10)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if counts != (model.Counts{Total: 3, Success: 2, Failed: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if st.writes != 3 {
		t.Errorf("expected exactly 3 write attempts, got %d", st.writes)
	}
	if idx.Contains("P2_main.jpg") {
		t.Error("failed key must not be added to index")
	}
}

func TestCommitExistenceCheckFailureDoesNotWrite(t *testing.T) {
	st := newCountingStore(t)
	st.failExists = func(string) bool { return true }
	w, _ := newTestWriter(st, index.New())

	counts, err := w.Commit(context.Background(), []model.FetchResult{okResult("P1", "main")}, 10)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if counts != (model.Counts{Total: 1, Failed: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if st.writes != 0 {
		t.Errorf("expected no write after failed existence check, got %d", st.writes)
	}
}

func TestCommitCountsAbsentResultsAsFailed(t *testing.T) {
	st := newCountingStore(t)
	w, _ := newTestWriter(st, index.New())

	absent := model.FetchResult{
		Ref: model.MediaReference{OwnerID: "P9", Kind: "main", SourceURL: "http://x/9.jpg"},
		Err: errors.New("fetch failed"),
	}
	counts, err := w.Commit(context.Background(), []model.FetchResult{absent, okResult("P1", "main")}, 10)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if counts != (model.Counts{Total: 2, Success: 1, Failed: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if st.checks != 1 {
		t.Errorf("expected a single existence check for the OK result, got %d", st.checks)
	}
}

func TestCommitSameKeyTwiceInOneBatch(t *testing.T) {
	st := newCountingStore(t)
	w, _ := newTestWriter(st, index.New())

	results := []model.FetchResult{okResult("P1", "main"), okResult("P1", "main")}
	counts, err := w.Commit(context.Background(), results, 10)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if counts != (model.Counts{Total: 2, Success: 1, Skipped: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if st.writes != 1 {
		t.Errorf("expected one write, got %d", st.writes)
	}
}

func TestCommitPacing(t *testing.T) {
	st := newCountingStore(t)
	idx := index.FromKeys([]string{"P0_main.jpg"})
	w, pauses := newTestWriter(st, idx)

	results := make([]model.FetchResult, 7)
	for i := range results {
		results[i] = okResult(fmt.Sprintf("P%d", i), "main")
	}

	counts, err := w.Commit(context.Background(), results, 3)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if counts != (model.Counts{Total: 7, Success: 6, Skipped: 1}) {
		t.Errorf("unexpected counts: %+v", counts)
	}

	var writePauses, subBatchPauses int
	for _, d := range *pauses {
		switch d {
		case 100 * time.Millisecond:
			writePauses++
		case time.Second:
			subBatchPauses++
		default:
			t.Errorf("unexpected pause %v", d)
		}
	}
	// One pause per write attempt; the skip costs nothing.
	if writePauses != 6 {
		t.Errorf("expected 6 write pauses, got %d", writePauses)
	}
	// 7 results in sub-batches of 3 -> 3 sub-batches -> 2 pauses between them.
	if subBatchPauses != 2 {
		t.Errorf("expected 2 sub-batch pauses, got %d", subBatchPauses)
	}
}

func TestCommitSubBatchSizeIsObservabilityOnly(t *testing.T) {
	results := make([]model.FetchResult, 10)
	for i := range results {
		results[i] = okResult(fmt.Sprintf("P%d", i), "main")
	}

	var first model.Counts
	for i, size := range []int{1, 3, 10, 0} {
		st := newCountingStore(t)
		w, _ := newTestWriter(st, index.New())

		counts, err := w.Commit(context.Background(), results, size)
		if err != nil {
			t.Fatalf("Commit(size=%d): %v", size, err)
		}
		if i == 0 {
			first = counts
			continue
		}
		if counts != first {
			t.Errorf("sub-batch size %d changed counts: %+v vs %+v", size, counts, first)
		}
	}
}

func TestCommitStopsOnCancelledContext(t *testing.T) {
	st := newCountingStore(t)
	w, _ := newTestWriter(st, index.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Commit(ctx, []model.FetchResult{okResult("P1", "main")}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if st.writes != 0 {
		t.Errorf("expected no writes after cancellation, got %d", st.writes)
	}
}

package progress

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Workers is the download concurrency (for display).
	Workers int

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable download progress. It is safe for
// concurrent use by download workers.
type Reporter struct {
	opts Options

	mu             sync.Mutex
	queued         atomic.Int64
	completed      atomic.Int64
	failed         atomic.Int64
	inProgress     atomic.Int32
	completedBytes atomic.Int64
	startTime      time.Time
	lastUpdate     time.Time
	lastBytes      int64
	stopCh         chan struct{}
	doneCh         chan struct{}
	started        bool
	stopped        bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.started = true
	r.startTime = time.Now()
	r.lastUpdate = r.startTime
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "[imgupload] Downloading media | Workers: %d\n", r.opts.Workers)

	go r.updateLoop()
}

// Stop stops the reporter and waits for the final status line.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.stopCh)
	if started {
		<-r.doneCh
	}
}

// AssetsQueued adds n assets to the expected total.
func (r *Reporter) AssetsQueued(n int) {
	r.queued.Add(int64(n))
}

// AssetStarted marks an asset download as in flight.
func (r *Reporter) AssetStarted() {
	r.inProgress.Add(1)
}

// AssetCompleted marks an asset as downloaded.
func (r *Reporter) AssetCompleted(size int64) {
	r.completedBytes.Add(size)
	r.completed.Add(1)
	r.inProgress.Add(-1)
}

// AssetFailed marks an asset as absent after all attempts.
func (r *Reporter) AssetFailed() {
	r.failed.Add(1)
	r.inProgress.Add(-1)
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	now := time.Now()
	completedBytes := r.completedBytes.Load()
	completed := r.completed.Load()
	failed := r.failed.Load()
	queued := r.queued.Load()
	inProgress := int64(r.inProgress.Load())

	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(completedBytes-r.lastBytes) / elapsed

	r.lastUpdate = now
	r.lastBytes = completedBytes

	waiting := max(queued-completed-failed-inProgress, 0)

	fmt.Fprintf(r.opts.Output, "\r[imgupload] Assets: %d / %d | Speed: %s/s | Elapsed: %s    ",
		completed+failed,
		queued,
		formatBytes(int64(speed)),
		formatDuration(now.Sub(r.startTime)),
	)
	fmt.Fprintf(r.opts.Output, "\n[imgupload] %d downloaded | %d failed | %d in-flight | %d queued    \033[A",
		completed,
		failed,
		inProgress,
		waiting,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	completedBytes := r.completedBytes.Load()
	duration := time.Since(r.startTime)

	var avgSpeed float64
	if s := duration.Seconds(); s > 0 {
		avgSpeed = float64(completedBytes) / s
	}

	fmt.Fprintf(r.opts.Output, "\r[imgupload] Downloads done: %d downloaded | %d failed | %s    \n",
		r.completed.Load(),
		r.failed.Load(),
		formatBytes(completedBytes),
	)
	fmt.Fprintf(r.opts.Output, "[imgupload] Download time: %s | Average speed: %s/s\n",
		formatDuration(duration),
		formatBytes(int64(avgSpeed)),
	)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// FormatDuration is exported for use by other packages.
func FormatDuration(d time.Duration) string {
	return formatDuration(d)
}

// byteUnits maps suffixes to multipliers, longest suffix first.
var byteUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"TiB", 1 << 40},
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"TB", 1 << 40},
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseBytes parses a human-readable byte string (e.g., "50MB").
// KB, MB, GB and TB are binary multiples, as printed by FormatBytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	var multiplier int64 = 1
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			multiplier = u.multiplier
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}

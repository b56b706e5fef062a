package progress

import (
	"time"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
)

// Report is the summary of one migration run.
type Report struct {
	model.Counts

	// Records is the number of source records read.
	Records int `json:"records"`

	// Batches is the number of pages processed.
	Batches int `json:"batches"`

	DryRun  bool          `json:"dry_run,omitempty"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Throughput returns assets per second over the whole run.
func (r Report) Throughput() float64 {
	s := r.Elapsed.Seconds()
	if s <= 0 {
		return 0
	}
	return float64(r.Total) / s
}

// Finished returns when the run ended.
func (r Report) Finished() time.Time {
	return r.Started.Add(r.Elapsed)
}

package model

import "fmt"

// Counts is an immutable tally of per-asset outcomes.
// Batch and sub-batch operations return a Counts value which the caller folds
// into its running total with Add.
type Counts struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	// Pending counts assets a dry run would have transferred.
	Pending int `json:"pending,omitempty"`
}

// Add returns the field-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Total:   c.Total + o.Total,
		Success: c.Success + o.Success,
		Skipped: c.Skipped + o.Skipped,
		Failed:  c.Failed + o.Failed,
		Pending: c.Pending + o.Pending,
	}
}

// Settled returns the number of assets with a terminal outcome.
func (c Counts) Settled() int {
	return c.Success + c.Skipped + c.Failed + c.Pending
}

// Balanced reports whether every counted asset has exactly one outcome.
func (c Counts) Balanced() bool {
	return c.Settled() == c.Total
}

func (c Counts) String() string {
	return fmt.Sprintf("total=%d success=%d skipped=%d failed=%d", c.Total, c.Success, c.Skipped, c.Failed)
}

// SkippedN returns Counts for n assets skipped before any network call.
func SkippedN(n int) Counts {
	return Counts{Total: n, Skipped: n}
}

// FailedN returns Counts for n assets that could not be downloaded.
func FailedN(n int) Counts {
	return Counts{Total: n, Failed: n}
}

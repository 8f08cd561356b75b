package sync

import (
	"time"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

func (r *Result) add(other Result) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// RunSummary captures the outcome of the most recent full run.
type RunSummary struct {
	Result        Result
	FetchFailures int
	CompletedAt   time.Time
}

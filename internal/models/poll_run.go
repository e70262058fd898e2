package models

import (
	"time"

	"github.com/google/uuid"
)

// Poll run outcome constants
const (
	RunSucceeded    = "succeeded"
	RunSourceFailed = "source_failed"
	RunStoreFailed  = "store_failed"
)

// PollRun is the audit record of one executed poll cycle.
type PollRun struct {
	ID              uuid.UUID `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Outcome         string    `json:"outcome"`
	WatermarkBefore int64     `json:"watermark_before"`
	WatermarkAfter  int64     `json:"watermark_after"`
	Fetched         int       `json:"fetched"`
	Matched         int       `json:"matched"`
	Claimed         int       `json:"claimed"`
	Notified        int       `json:"notified"`
	Failed          int       `json:"failed"`
	Error           *string   `json:"error,omitempty"`
}

// Succeeded reports whether the run committed its unit of work.
func (r *PollRun) Succeeded() bool {
	return r.Outcome == RunSucceeded
}

// Duration returns how long the run took.
func (r *PollRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

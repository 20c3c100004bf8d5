package domain

import "time"

// ReindexStage names a stage of the reindex state machine.
type ReindexStage string

const (
	ReindexStageWipe     ReindexStage = "wipe"
	ReindexStageRead     ReindexStage = "read"
	ReindexStageIndex    ReindexStage = "index"
	ReindexStageRegister ReindexStage = "register"
)

// ReindexStatus is the terminal state of a reindex run.
type ReindexStatus string

const (
	ReindexStatusCompleted ReindexStatus = "completed"
	ReindexStatusFailed    ReindexStatus = "failed"
)

// ReindexResult is the outcome of a reindex run.
// A run with per-item errors is still Completed.
type ReindexResult struct {
	TenantID    string             `json:"tenant_id"`
	Status      ReindexStatus      `json:"status"`
	FailedStage ReindexStage       `json:"failed_stage,omitempty"`
	Stats       *IndexRebuildStats `json:"stats,omitempty"`
	Error       string             `json:"error,omitempty"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Success reports whether the run completed.
func (r *ReindexResult) Success() bool {
	return r.Status == ReindexStatusCompleted
}

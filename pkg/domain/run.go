package domain

import (
	"fmt"
	"time"
)

// RunContext holds the per-run configuration. It is immutable once created.
type RunContext struct {
	stepLimit int
}

// NewRunContext validates the step limit.
func NewRunContext(stepLimit int) (RunContext, error) {
	if stepLimit <= 0 {
		return RunContext{}, fmt.Errorf("%w: step limit must be > 0, got %d", ErrInvalidTeam, stepLimit)
	}
	return RunContext{stepLimit: stepLimit}, nil
}

// DefaultRunContext returns a context using DefaultStepLimit.
func DefaultRunContext() RunContext {
	return RunContext{stepLimit: DefaultStepLimit}
}

// StepLimit returns the maximum number of non-terminal transitions.
func (rc RunContext) StepLimit() int { return rc.stepLimit }

// RunResult is the outcome of one run.
type RunResult struct {
	RunID  string
	Status RunStatus
	Steps  int
	Path   []string
	Err    error
}

// RunRecord is the persisted metadata of a run.
// It never carries message contents.
type RunRecord struct {
	ID         string     `json:"id"`
	Status     RunStatus  `json:"status"`
	Steps      int        `json:"steps"`
	Path       []string   `json:"path,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finish copies the outcome of res into the record.
func (r *RunRecord) Finish(res RunResult, at time.Time) {
	r.Status = res.Status
	r.Steps = res.Steps
	r.Path = append([]string(nil), res.Path...)
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	r.FinishedAt = &at
}

package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/pkg/domain"
)

// Executor runs a task to completion, calling sink for every filtered event.
// *foreman.Team implements it.
type Executor interface {
	Execute(ctx context.Context, task string, sink func(domain.StreamEvent) error) domain.RunResult
}

// Runner executes tasks and presents them through a Handler.
type Runner struct {
	team    Executor
	handler Handler
	logger  *slog.Logger
}

// NewRunner creates a Runner that prints plain text to stdout by default.
func NewRunner(team Executor, opts ...Option) *Runner {
	r := &Runner{
		team:    team,
		handler: NewTextHandler(os.Stdout),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sanitises task and executes it. The returned error is non-nil when the
// task is rejected, the handler fails, or the run ends in FAILED.
func (r *Runner) Run(ctx context.Context, task string) (domain.RunResult, error) {
	clean, err := SanitizeTask(task)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("task rejected: %w", err)
	}

	res := r.team.Execute(ctx, clean, func(ev domain.StreamEvent) error {
		return r.handler.Event(ctx, ev)
	})
	r.logger.DebugContext(ctx, "run finished", "run_id", res.RunID, "status", res.Status, "steps", res.Steps)

	if err := r.handler.Done(ctx, res); err != nil {
		return res, fmt.Errorf("output failed: %w", err)
	}
	if res.Status == domain.StatusFailed {
		return res, fmt.Errorf("run %s failed: %w", res.RunID, res.Err)
	}
	return res, nil
}

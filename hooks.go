package foreman

import (
	"context"
	"log/slog"

	"github.com/aretw0/foreman/pkg/domain"
)

// LoggingHooks returns hooks that log every transition, route and worker call.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition",
				"run_id", e.RunID,
				"step", e.Step,
				"from", e.From,
				"to", e.To,
			)
		},
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.InfoContext(ctx, "route", "run_id", e.RunID, "step", e.Step, "next", e.Next)
		},
		OnWorkerCall: func(ctx context.Context, e *domain.WorkerEvent) {
			logger.DebugContext(ctx, "worker_call", "run_id", e.RunID, "worker", e.Worker)
		},
		OnWorkerReturn: func(ctx context.Context, e *domain.WorkerEvent) {
			logger.InfoContext(ctx, "worker_return",
				"run_id", e.RunID,
				"worker", e.Worker,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
		OnRunEnd: func(ctx context.Context, r *domain.RunResult) {
			attrs := []any{"run_id", r.RunID, "status", r.Status, "steps", r.Steps}
			if r.Err != nil {
				logger.WarnContext(ctx, "run_end", append(attrs, "err", r.Err)...)
				return
			}
			logger.InfoContext(ctx, "run_end", attrs...)
		},
	}
}

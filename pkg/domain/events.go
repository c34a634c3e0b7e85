package domain

import (
	"context"
	"time"
)

// StreamEvent is emitted once per state transition.
type StreamEvent struct {
	RunID        string  `json:"run_id"`
	Step         int     `json:"step"`
	Source       string  `json:"source"`
	Payload      Message `json:"payload"`
	IsToolResult bool    `json:"is_tool_result"`
}

// NewStreamEvent derives IsToolResult from the payload kind.
func NewStreamEvent(runID string, step int, source string, payload Message) StreamEvent {
	return StreamEvent{
		RunID:        runID,
		Step:         step,
		Source:       source,
		Payload:      payload,
		IsToolResult: payload.IsToolResult(),
	}
}

// TransitionEvent describes a move between two graph states.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Step      int       `json:"step"`
	From      NodeState `json:"from"`
	To        NodeState `json:"to"`
}

// RouteEvent describes a supervisor decision.
type RouteEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Step      int       `json:"step"`
	Next      string    `json:"next"`
}

// WorkerEvent represents a capability call.
type WorkerEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id"`
	Worker    string        `json:"worker"`
	Duration  time.Duration `json:"duration,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for graph observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnTransition   func(context.Context, *TransitionEvent)
	OnRoute        func(context.Context, *RouteEvent)
	OnWorkerCall   func(context.Context, *WorkerEvent)
	OnWorkerReturn func(context.Context, *WorkerEvent)
	OnRunEnd       func(context.Context, *RunResult)
}

// MergeHooks combines several hook sets; callbacks run in argument order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range sets {
		merged.OnTransition = chain(merged.OnTransition, h.OnTransition)
		merged.OnRoute = chain(merged.OnRoute, h.OnRoute)
		merged.OnWorkerCall = chain(merged.OnWorkerCall, h.OnWorkerCall)
		merged.OnWorkerReturn = chain(merged.OnWorkerReturn, h.OnWorkerReturn)
		merged.OnRunEnd = chain(merged.OnRunEnd, h.OnRunEnd)
	}
	return merged
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, ev T) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

package foreman

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/internal/runtime"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/aretw0/foreman/pkg/stream"
	"github.com/google/uuid"
)

// DefaultTask is used when a caller starts a run without a task.
const DefaultTask = "Research AI agents and write a brief report about them."

// Team is the high-level entry point: a supervisor and its registered workers.
// A Team is safe for concurrent use; every run owns its own state.
type Team struct {
	graph    *runtime.Graph
	rc       domain.RunContext
	recorder ports.RunRecorder
	logger   *slog.Logger

	regs              []runtime.Registration
	hooks             domain.LifecycleHooks
	stepLimit         int
	policy            domain.FailurePolicy
	capabilityTimeout time.Duration
	eventBuffer       int
}

// Option defines a functional option for configuring the Team.
type Option func(*Team)

// WithWorker registers a worker under name. Registration order is kept.
func WithWorker(name string, w ports.Worker) Option {
	return func(t *Team) {
		t.regs = append(t.regs, runtime.Registration{Name: name, Worker: w})
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Team) {
		t.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Team) {
		t.hooks = domain.MergeHooks(t.hooks, hooks)
	}
}

// WithStepLimit bounds the number of non-terminal transitions per run.
func WithStepLimit(limit int) Option {
	return func(t *Team) {
		t.stepLimit = limit
	}
}

// WithFailurePolicy decides whether a worker failure ends the run.
func WithFailurePolicy(policy domain.FailurePolicy) Option {
	return func(t *Team) {
		t.policy = policy
	}
}

// WithCapabilityTimeout bounds each delegate and worker call.
func WithCapabilityTimeout(d time.Duration) Option {
	return func(t *Team) {
		t.capabilityTimeout = d
	}
}

// WithEventBuffer sets the capacity of the event channels (default 1).
func WithEventBuffer(n int) Option {
	return func(t *Team) {
		t.eventBuffer = n
	}
}

// WithRecorder persists run metadata.
func WithRecorder(rec ports.RunRecorder) Option {
	return func(t *Team) {
		t.recorder = rec
	}
}

// New builds a Team. Invalid registrations are rejected here.
func New(delegate ports.Delegate, opts ...Option) (*Team, error) {
	t := &Team{
		stepLimit:   domain.DefaultStepLimit,
		policy:      domain.PolicyFail,
		eventBuffer: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.NewNop()
	}
	if t.eventBuffer < 1 {
		return nil, fmt.Errorf("%w: event buffer must be >= 1, got %d", domain.ErrInvalidTeam, t.eventBuffer)
	}

	rc, err := domain.NewRunContext(t.stepLimit)
	if err != nil {
		return nil, err
	}
	t.rc = rc

	graph, err := runtime.NewGraph(delegate, t.regs,
		runtime.WithLogger(t.logger),
		runtime.WithLifecycleHooks(t.hooks),
		runtime.WithFailurePolicy(t.policy),
		runtime.WithCapabilityTimeout(t.capabilityTimeout),
	)
	if err != nil {
		return nil, err
	}
	t.graph = graph
	return t, nil
}

// Workers returns the registered worker identities in registration order.
func (t *Team) Workers() []string { return t.graph.Workers() }

// Nodes returns the graph topology.
func (t *Team) Nodes() []domain.Node { return t.graph.Nodes() }

// StepLimit returns the configured step bound.
func (t *Team) StepLimit() int { return t.rc.StepLimit() }

// Recorder returns the run recorder, or nil when none is configured.
func (t *Team) Recorder() ports.RunRecorder { return t.recorder }

// Run is a handle on an in-flight run.
type Run struct {
	id     string
	events <-chan domain.StreamEvent
	done   chan struct{}
	result domain.RunResult
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Events returns the filtered event stream. It is closed when the run ends.
// The run blocks while nobody reads it, so callers must drain it or cancel
// the context passed to Start.
func (r *Run) Events() <-chan domain.StreamEvent { return r.events }

// Wait blocks until the run reaches a terminal state.
func (r *Run) Wait() domain.RunResult {
	<-r.done
	return r.result
}

// Start launches a run in the background.
// An empty task is replaced by DefaultTask.
func (t *Team) Start(ctx context.Context, task string) *Run {
	if task == "" {
		task = DefaultTask
	}
	raw := make(chan domain.StreamEvent, t.eventBuffer)
	out := make(chan domain.StreamEvent, t.eventBuffer)
	r := &Run{
		id:     uuid.NewString(),
		events: out,
		done:   make(chan struct{}),
	}

	rec := domain.RunRecord{
		ID:        r.id,
		Status:    domain.StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	t.save(ctx, rec)

	go stream.Pipe(ctx, raw, out)
	go func() {
		defer close(r.done)
		res := t.graph.Run(ctx, t.rc, r.id, task, raw)
		close(raw)

		rec.Finish(res, time.Now().UTC())
		t.save(context.WithoutCancel(ctx), rec)
		r.result = res
	}()
	return r
}

// Execute drives a run to completion, handing every filtered event to sink.
// A sink error cancels the run; the remaining events are drained.
func (t *Team) Execute(ctx context.Context, task string, sink func(domain.StreamEvent) error) domain.RunResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := t.Start(ctx, task)
	var sinkErr error
	for ev := range run.Events() {
		if sinkErr != nil {
			continue
		}
		if sinkErr = sink(ev); sinkErr != nil {
			t.logger.WarnContext(ctx, "event sink failed", "run_id", run.ID(), "err", sinkErr)
			cancel()
		}
	}
	return run.Wait()
}

func (t *Team) save(ctx context.Context, rec domain.RunRecord) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.Save(ctx, rec); err != nil {
		t.logger.ErrorContext(ctx, "failed to record run", "run_id", rec.ID, "status", rec.Status, "err", err)
	}
}

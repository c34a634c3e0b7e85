package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
)

// walk is the mutable state of one run. It is confined to the goroutine that
// called Graph.Run.
type walk struct {
	g     *Graph
	rc    domain.RunContext
	runID string
	log   *domain.Log
	emit  chan<- domain.StreamEvent

	state domain.NodeState
	step  int
	path  []string
	err   error
}

// Run walks the graph from SUPERVISOR until DONE or FAILED.
//
// Every transition increments the step counter and publishes one StreamEvent
// on emit. Publishing blocks while emit is full, which is how a slow consumer
// slows the run down. A nil emit discards events. Run closes nothing; the
// caller owns emit.
//
// Fatal errors never escape as panics: they end the run in FAILED and are
// reported in RunResult.Err.
func (g *Graph) Run(ctx context.Context, rc domain.RunContext, runID, task string, emit chan<- domain.StreamEvent) domain.RunResult {
	if rc.StepLimit() <= 0 {
		rc = domain.DefaultRunContext()
	}
	w := &walk{
		g:     g,
		rc:    rc,
		runID: runID,
		log:   domain.NewLog(task),
		emit:  emit,
		state: domain.StateSupervisor,
		path:  []string{domain.SupervisorName},
	}

	g.logger.DebugContext(ctx, "run started", "run_id", runID, "step_limit", rc.StepLimit(), "workers", g.order)

	for !w.state.IsTerminal() {
		var err error
		if cerr := ctx.Err(); cerr != nil {
			err = fmt.Errorf("run cancelled: %w", cerr)
		} else if w.state == domain.StateSupervisor {
			err = w.supervise(ctx)
		} else {
			err = w.dispatch(ctx, string(w.state))
		}
		if err != nil {
			w.fail(ctx, err)
		}
	}

	res := domain.RunResult{
		RunID:  runID,
		Status: domain.StatusDone,
		Steps:  w.step,
		Path:   w.path,
		Err:    w.err,
	}
	if w.state == domain.StateFailed {
		res.Status = domain.StatusFailed
		g.logger.WarnContext(ctx, "run failed", "run_id", runID, "steps", w.step, "err", w.err)
	} else {
		g.logger.InfoContext(ctx, "run done", "run_id", runID, "steps", w.step)
	}
	if g.hooks.OnRunEnd != nil {
		g.hooks.OnRunEnd(ctx, &res)
	}
	return res
}

// supervise handles one SUPERVISOR turn.
func (w *walk) supervise(ctx context.Context) error {
	callCtx, cancel := w.g.callContext(ctx)
	decision, err := w.g.supervisor.Route(callCtx, w.log.Snapshot())
	cancel()
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("run cancelled: %w", cerr)
	}
	if err != nil {
		return err
	}

	if w.g.hooks.OnRoute != nil {
		w.g.hooks.OnRoute(ctx, &domain.RouteEvent{
			Timestamp: time.Now(),
			RunID:     w.runID,
			Step:      w.step + 1,
			Next:      decision.Next,
		})
	}

	next := domain.StateDone
	if !decision.IsDone() {
		next = domain.NodeState(decision.Next)
		if w.step+1 > w.rc.StepLimit() {
			return &domain.StepBoundError{Limit: w.rc.StepLimit(), Step: w.step + 1}
		}
	}

	payload := domain.NewMessage(domain.SupervisorName, "next: "+decision.Next, domain.KindOrdinary)
	if decision.Rationale != "" {
		payload = domain.NewMessage(domain.SupervisorName, decision.Rationale, domain.KindOrdinary)
		w.log.Append(payload)
	}

	w.transition(ctx, next)
	return w.publish(ctx, domain.SupervisorName, payload)
}

// dispatch invokes the worker bound to name and reports back to the supervisor.
func (w *walk) dispatch(ctx context.Context, name string) error {
	worker := w.g.workers[name]

	msg, err := w.g.invoke(ctx, w.runID, name, worker, w.log.Snapshot())
	// A result that arrives after cancellation is discarded.
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("run cancelled: %w", cerr)
	}
	if err != nil {
		capErr := &domain.CapabilityError{Node: name, Err: err}
		if w.g.policy != domain.PolicyAbsorb {
			return capErr
		}
		w.g.logger.WarnContext(ctx, "capability failure absorbed", "run_id", w.runID, "worker", name, "err", err)
		msg = domain.NewMessage(name, "error: "+err.Error(), domain.KindOrdinary)
	} else if msg.Author() != name {
		return &domain.CapabilityError{
			Node: name,
			Err:  fmt.Errorf("worker returned a message authored by %q", msg.Author()),
		}
	}

	// The result of a call that crosses the bound is discarded.
	if w.step+1 > w.rc.StepLimit() {
		return &domain.StepBoundError{Limit: w.rc.StepLimit(), Step: w.step + 1}
	}

	w.log.Append(msg)
	w.transition(ctx, domain.StateSupervisor)
	return w.publish(ctx, name, msg)
}

// fail moves the run to FAILED. Only the first error is kept.
func (w *walk) fail(ctx context.Context, err error) {
	if w.state.IsTerminal() {
		return
	}
	w.err = err
	w.transition(ctx, domain.StateFailed)
	if ctx.Err() == nil {
		// Supervisor-sourced so the stream filter keeps it away from clients;
		// the transport reports the failure in its own error frame.
		_ = w.publish(ctx, domain.SupervisorName, domain.NewMessage(domain.SupervisorName, err.Error(), domain.KindOrdinary))
	}
}

func (w *walk) transition(ctx context.Context, to domain.NodeState) {
	from := w.state
	w.step++
	w.state = to
	w.path = append(w.path, string(to))

	w.g.logger.DebugContext(ctx, "transition", "run_id", w.runID, "step", w.step, "from", from, "to", to)
	if w.g.hooks.OnTransition != nil {
		w.g.hooks.OnTransition(ctx, &domain.TransitionEvent{
			Timestamp: time.Now(),
			RunID:     w.runID,
			Step:      w.step,
			From:      from,
			To:        to,
		})
	}
}

func (w *walk) publish(ctx context.Context, source string, msg domain.Message) error {
	if w.emit == nil {
		return nil
	}
	ev := domain.NewStreamEvent(w.runID, w.step, source, msg)
	select {
	case w.emit <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("run cancelled: %w", ctx.Err())
	}
}

// invoke calls a worker with the capability timeout applied and converts a
// panic into an error.
func (g *Graph) invoke(ctx context.Context, runID, name string, worker ports.Worker, conv domain.Conversation) (msg domain.Message, err error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	ev := &domain.WorkerEvent{Timestamp: time.Now(), RunID: runID, Worker: name}
	if g.hooks.OnWorkerCall != nil {
		g.hooks.OnWorkerCall(ctx, ev)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if g.hooks.OnWorkerReturn != nil {
			ret := *ev
			ret.Duration = time.Since(ev.Timestamp)
			ret.IsError = err != nil
			g.hooks.OnWorkerReturn(ctx, &ret)
		}
	}()

	return worker.Invoke(callCtx, conv)
}

func (g *Graph) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.capabilityTimeout > 0 {
		return context.WithTimeout(ctx, g.capabilityTimeout)
	}
	return context.WithCancel(ctx)
}

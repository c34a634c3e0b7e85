package stream

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
)

// Filter decides whether ev may reach the client. Rules apply in order:
// tool-result payloads are dropped, then supervisor-sourced events are dropped.
// Surviving events are returned unchanged.
func Filter(ev domain.StreamEvent) (domain.StreamEvent, bool) {
	if ev.IsToolResult || ev.Payload.IsToolResult() {
		return domain.StreamEvent{}, false
	}
	if ev.Source == domain.SupervisorName {
		return domain.StreamEvent{}, false
	}
	return ev, true
}

// Pipe forwards the events of in that pass Filter to out, in arrival order.
// It holds at most one event at a time and closes out when in is closed or
// ctx is done.
func Pipe(ctx context.Context, in <-chan domain.StreamEvent, out chan<- domain.StreamEvent) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			kept, keep := Filter(ev)
			if !keep {
				continue
			}
			select {
			case out <- kept:
			case <-ctx.Done():
				return
			}
		}
	}
}

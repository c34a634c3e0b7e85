package runner

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
)

// Handler presents a run to the user.
// Event is called once per filtered event, in order; Done once at the end.
type Handler interface {
	Event(ctx context.Context, ev domain.StreamEvent) error
	Done(ctx context.Context, res domain.RunResult) error
}

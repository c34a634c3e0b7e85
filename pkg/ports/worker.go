package ports

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
)

// Worker wraps one capability. Invoke receives the full history and returns
// exactly one message authored by the worker identity.
type Worker interface {
	Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error)
}

// WorkerFunc adapts a plain function to the Worker interface.
type WorkerFunc func(ctx context.Context, conv domain.Conversation) (domain.Message, error)

// Invoke calls f.
func (f WorkerFunc) Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
	return f(ctx, conv)
}

package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/foreman/pkg/domain"
)

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) GraphOption {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) GraphOption {
	return func(g *Graph) {
		g.hooks = hooks
	}
}

// WithFailurePolicy sets how worker capability failures are handled.
func WithFailurePolicy(policy domain.FailurePolicy) GraphOption {
	return func(g *Graph) {
		g.policy = policy
	}
}

// WithCapabilityTimeout bounds every delegate and worker call. Zero disables it.
func WithCapabilityTimeout(d time.Duration) GraphOption {
	return func(g *Graph) {
		g.capabilityTimeout = d
	}
}

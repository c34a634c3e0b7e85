package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHandler configures how the run is presented.
func WithHandler(handler Handler) Option {
	return func(r *Runner) {
		if handler != nil {
			r.handler = handler
		}
	}
}

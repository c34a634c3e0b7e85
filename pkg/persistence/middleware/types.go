// Package middleware decorates run recorders.
package middleware

import "github.com/aretw0/foreman/pkg/ports"

// Middleware wraps a RunRecorder.
type Middleware func(ports.RunRecorder) ports.RunRecorder

// Chain applies middlewares so the first one is outermost.
func Chain(rec ports.RunRecorder, mws ...Middleware) ports.RunRecorder {
	for i := len(mws) - 1; i >= 0; i-- {
		rec = mws[i](rec)
	}
	return rec
}

package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
)

// Supervisor turns the untrusted answer of a Delegate into a RoutingDecision.
type Supervisor struct {
	delegate ports.Delegate
	options  []string
	known    map[string]struct{}
}

// NewSupervisor creates a supervisor routing between the given worker identities.
func NewSupervisor(delegate ports.Delegate, workers []string) *Supervisor {
	known := make(map[string]struct{}, len(workers))
	for _, w := range workers {
		known[w] = struct{}{}
	}
	return &Supervisor{
		delegate: delegate,
		options:  append([]string(nil), workers...),
		known:    known,
	}
}

// Options returns the worker identities the delegate may choose from.
func (s *Supervisor) Options() []string {
	return append([]string(nil), s.options...)
}

// Route asks the delegate for the next worker. Only an exact worker identity or
// domain.Done (ignoring surrounding whitespace) is accepted.
func (s *Supervisor) Route(ctx context.Context, conv domain.Conversation) (domain.RoutingDecision, error) {
	verdict, err := s.delegate.Decide(ctx, s.Options(), conv)
	if err != nil {
		return domain.RoutingDecision{}, &domain.CapabilityError{Node: domain.SupervisorName, Err: err}
	}

	next := strings.TrimSpace(verdict.Next)
	if next != domain.Done {
		if _, ok := s.known[next]; !ok {
			return domain.RoutingDecision{}, &domain.RoutingContractError{
				Value:     verdict.Next,
				Permitted: append(s.Options(), domain.Done),
			}
		}
	}

	return domain.RoutingDecision{
		Next:      next,
		Rationale: strings.TrimSpace(verdict.Rationale),
	}, nil
}

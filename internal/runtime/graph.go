package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
)

// Registration binds a worker identity to its implementation.
type Registration struct {
	Name   string
	Worker ports.Worker
}

// Graph is the supervisor/worker state machine.
// A Graph is immutable after construction and can drive any number of
// concurrent runs; each run owns its own log and step counter.
type Graph struct {
	supervisor *Supervisor
	workers    map[string]ports.Worker
	order      []string

	hooks             domain.LifecycleHooks
	logger            *slog.Logger
	policy            domain.FailurePolicy
	capabilityTimeout time.Duration
}

// NewGraph validates the registrations and wires the supervisor.
// Registration problems are reported here rather than on the first run.
func NewGraph(delegate ports.Delegate, regs []Registration, opts ...GraphOption) (*Graph, error) {
	if delegate == nil {
		return nil, fmt.Errorf("%w: delegate is required", domain.ErrInvalidTeam)
	}
	if len(regs) == 0 {
		return nil, fmt.Errorf("%w: at least one worker is required", domain.ErrInvalidTeam)
	}

	workers := make(map[string]ports.Worker, len(regs))
	order := make([]string, 0, len(regs))
	for _, reg := range regs {
		switch {
		case reg.Name == "":
			return nil, fmt.Errorf("%w: worker name is empty", domain.ErrInvalidTeam)
		case domain.IsReserved(reg.Name):
			return nil, fmt.Errorf("%w: worker name %q is reserved", domain.ErrInvalidTeam, reg.Name)
		case reg.Worker == nil:
			return nil, fmt.Errorf("%w: worker %q has no implementation", domain.ErrInvalidTeam, reg.Name)
		}
		if _, dup := workers[reg.Name]; dup {
			return nil, fmt.Errorf("%w: worker %q registered twice", domain.ErrInvalidTeam, reg.Name)
		}
		workers[reg.Name] = reg.Worker
		order = append(order, reg.Name)
	}

	g := &Graph{
		supervisor: NewSupervisor(delegate, order),
		workers:    workers,
		order:      order,
		logger:     logging.NewNop(),
		policy:     domain.PolicyFail,
	}
	for _, opt := range opts {
		opt(g)
	}
	if _, err := domain.ParseFailurePolicy(string(g.policy)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTeam, err)
	}
	return g, nil
}

// Workers returns the registered identities in registration order.
func (g *Graph) Workers() []string {
	return append([]string(nil), g.order...)
}

// Nodes returns the graph topology for introspection.
func (g *Graph) Nodes() []domain.Node {
	supervisorEdges := append(g.Workers(), string(domain.StateDone), string(domain.StateFailed))
	nodes := []domain.Node{{
		ID:          domain.SupervisorName,
		Kind:        domain.NodeKindSupervisor,
		Transitions: supervisorEdges,
	}}
	for _, name := range g.order {
		nodes = append(nodes, domain.Node{
			ID:          name,
			Kind:        domain.NodeKindWorker,
			Transitions: []string{domain.SupervisorName, string(domain.StateFailed)},
		})
	}
	return append(nodes,
		domain.Node{ID: string(domain.StateDone), Kind: domain.NodeKindTerminal, Transitions: []string{}},
		domain.Node{ID: string(domain.StateFailed), Kind: domain.NodeKindTerminal, Transitions: []string{}},
	)
}

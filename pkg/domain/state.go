package domain

// NodeState names a state of the orchestration graph.
// Besides the constants below, every registered worker identity is a state.
type NodeState string

const (
	StateSupervisor NodeState = SupervisorName
	StateDone       NodeState = "done"
	StateFailed     NodeState = "failed"
)

// IsTerminal reports whether no transition leaves the state.
func (s NodeState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// RunStatus defines the lifecycle of a run as seen from outside.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusDone    RunStatus = "done"
	StatusFailed  RunStatus = "failed"
)

// Node describes one vertex of the graph for introspection.
type Node struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Transitions []string `json:"transitions"`
}

const (
	NodeKindSupervisor = "supervisor"
	NodeKindWorker     = "worker"
	NodeKindTerminal   = "terminal"
)

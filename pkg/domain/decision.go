package domain

// RoutingDecision is the supervisor's output for one turn.
type RoutingDecision struct {
	// Next is a registered worker identity or Done.
	Next string
	// Rationale is optional deliberation text produced by the delegate.
	Rationale string
}

// IsDone reports whether the decision ends the run.
func (d RoutingDecision) IsDone() bool {
	return d.Next == Done
}

// Verdict is the raw, untrusted answer of a reasoning delegate.
type Verdict struct {
	Next      string
	Rationale string
}

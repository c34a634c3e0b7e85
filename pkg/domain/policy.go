package domain

import "fmt"

// FailurePolicy decides what a capability failure does to a run.
type FailurePolicy string

const (
	// PolicyFail ends the run in FAILED. This is the default.
	PolicyFail FailurePolicy = "fail"
	// PolicyAbsorb turns the failure into an error message from the worker so
	// the supervisor can re-route.
	PolicyAbsorb FailurePolicy = "absorb"
)

// ParseFailurePolicy maps a configuration value to a policy. Empty means PolicyFail.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicyAbsorb:
		return PolicyAbsorb, nil
	}
	return "", fmt.Errorf("unknown failure policy %q (want %q or %q)", s, PolicyFail, PolicyAbsorb)
}

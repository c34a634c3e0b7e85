package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRoutingContract is returned when the delegate answers outside the permitted set.
var ErrRoutingContract = errors.New("routing contract violation")

// ErrStepBoundExceeded is returned when a run exceeds its step limit.
var ErrStepBoundExceeded = errors.New("step bound exceeded")

// ErrCapability is returned when a worker or delegate capability fails.
var ErrCapability = errors.New("capability failure")

// ErrRunNotFound is returned when a run ID cannot be found in the recorder.
var ErrRunNotFound = errors.New("run not found")

// ErrInvalidTeam is returned when a graph is built from an invalid registration.
var ErrInvalidTeam = errors.New("invalid team")

// RoutingContractError carries the offending delegate answer.
type RoutingContractError struct {
	Value     string
	Permitted []string
}

func (e *RoutingContractError) Error() string {
	return fmt.Sprintf("routing contract violation: %q is not one of [%s]", e.Value, strings.Join(e.Permitted, ", "))
}

func (e *RoutingContractError) Is(target error) bool { return target == ErrRoutingContract }

// StepBoundError reports the step at which the bound was breached.
type StepBoundError struct {
	Limit int
	Step  int
}

func (e *StepBoundError) Error() string {
	return fmt.Sprintf("step bound exceeded: step %d > limit %d", e.Step, e.Limit)
}

func (e *StepBoundError) Is(target error) bool { return target == ErrStepBoundExceeded }

// CapabilityError wraps the failure of an external call made on behalf of Node.
type CapabilityError struct {
	Node string
	Err  error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Node, e.Err)
}

func (e *CapabilityError) Is(target error) bool { return target == ErrCapability }

func (e *CapabilityError) Unwrap() error { return e.Err }

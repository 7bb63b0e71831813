package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidDefinition is wrapped by every structural problem found while
// building a machine.
var ErrInvalidDefinition = errors.New("invalid state machine definition")

// ErrMissingAction is returned when an action or condition name is not
// registered. It is a configuration error, not a retryable condition.
var ErrMissingAction = errors.New("action not registered")

// ErrUnknownState is returned when a state path does not exist in the machine.
var ErrUnknownState = errors.New("unknown state")

// ErrUnknownEvent is returned when an event is not declared by the machine.
var ErrUnknownEvent = errors.New("unknown event")

// ErrMachineStopped is returned when a stopped machine is asked to process events.
var ErrMachineStopped = errors.New("machine stopped")

// ErrNotStarted is returned when events are processed before Start.
var ErrNotStarted = errors.New("machine not started")

// ConstructionError describes a structural problem in a state definition.
type ConstructionError struct {
	Path   string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("state '%s': %s", e.Path, e.Reason)
}

func (e *ConstructionError) Unwrap() error {
	return ErrInvalidDefinition
}

// MissingActionError names the action that could not be resolved.
type MissingActionError struct {
	Name string
}

func (e *MissingActionError) Error() string {
	return fmt.Sprintf("action '%s' not registered", e.Name)
}

func (e *MissingActionError) Unwrap() error {
	return ErrMissingAction
}

// ErrTransitionLoop is returned when automatic entry keeps transitioning
// without settling in a state.
var ErrTransitionLoop = errors.New("transition loop")

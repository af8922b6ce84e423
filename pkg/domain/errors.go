package domain

import (
	"errors"
	"fmt"
)

// ErrExecutionNotFound is returned when an execution key cannot be found in the store.
var ErrExecutionNotFound = errors.New("execution not found")

// ErrExecutionEnded is returned when a request targets an execution that has already ended.
var ErrExecutionEnded = errors.New("execution has ended")

// ErrNoActiveSession is returned when an operation requires an active session and the stack is empty.
var ErrNoActiveSession = errors.New("no active flow session")

// NoMatchingTransitionError is returned when no transition of the current
// state, nor any global transition of its flow, matches the signaled event.
type NoMatchingTransitionError struct {
	FlowID  string
	StateID string
	EventID string
}

func (e *NoMatchingTransitionError) Error() string {
	return fmt.Sprintf("no transition found on occurrence of event '%s' in state '%s' of flow '%s'", e.EventID, e.StateID, e.FlowID)
}

// NoSuchStateError is returned when a flow does not define the requested state.
type NoSuchStateError struct {
	FlowID  string
	StateID string
}

func (e *NoSuchStateError) Error() string {
	return fmt.Sprintf("flow '%s' has no state with id '%s'", e.FlowID, e.StateID)
}

// FlowExecutionError wraps an unhandled failure raised while processing a request.
type FlowExecutionError struct {
	FlowID  string
	StateID string
	Err     error
}

func (e *FlowExecutionError) Error() string {
	if e.StateID == "" {
		return fmt.Sprintf("flow '%s': %v", e.FlowID, e.Err)
	}
	return fmt.Sprintf("flow '%s' state '%s': %v", e.FlowID, e.StateID, e.Err)
}

func (e *FlowExecutionError) Unwrap() error {
	return e.Err
}

package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/mapping"
)

// Mapping phases reported by MappingError.
const (
	PhaseInput         = "input"
	PhaseOutput        = "output"
	PhaseBind          = "bind"
	PhaseSubflowInput  = "subflow input"
	PhaseSubflowOutput = "subflow output"
)

// MappingError reports a mapping that produced error results.
type MappingError struct {
	Phase   string
	Results *mapping.Results
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s mapping failed: %s", e.Phase, e.Results)
}

// TransitionVetoedError is returned when a transition leaving a non-view
// state does not navigate, either because an action vetoed it or because it
// has no target.
type TransitionVetoedError struct {
	StateID    string
	Transition string
	// Result is the id of the vetoing event, empty when the transition had no target.
	Result string
}

func (e *TransitionVetoedError) Error() string {
	if e.Result == "" {
		return fmt.Sprintf("transition %s from state '%s' has no target", e.Transition, e.StateID)
	}
	return fmt.Sprintf("transition %s from state '%s' vetoed by result '%s'", e.Transition, e.StateID, e.Result)
}

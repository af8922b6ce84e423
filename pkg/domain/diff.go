package domain

import (
	"reflect"

	"github.com/aretw0/arbor/pkg/attr"
)

// ExecutionDiff represents the changes between two snapshots of an execution.
// It is designed to be serialized to JSON for partial updates on the client.
type ExecutionDiff struct {
	// Key is always present to identify the target.
	Key string `json:"key"`

	FlowID  *string          `json:"flow_id,omitempty"`
	StateID *string          `json:"state_id,omitempty"`
	Status  *ExecutionStatus `json:"status,omitempty"`
	Depth   *int             `json:"depth,omitempty"`

	// FlowScope contains only changed, added or deleted keys of the active
	// session's flow scope. Deletions carry a nil value.
	FlowScope map[string]any `json:"flow_scope,omitempty"`

	// Conversation follows the same rules for the conversation scope.
	Conversation map[string]any `json:"conversation,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the history stack.
type HistoryDelta struct {
	Appended []string `json:"appended"`
}

// Diff calculates the difference between oldExec and newExec.
// If oldExec is nil, it returns a diff representing the entire newExec (initial load).
// It returns nil when nothing changed.
func Diff(oldExec, newExec *Execution) *ExecutionDiff {
	if newExec == nil {
		return nil
	}

	diff := &ExecutionDiff{Key: newExec.Key}

	oldFlow, oldState, oldScope := position(oldExec)
	newFlow, newState, newScope := position(newExec)

	if oldExec == nil || oldFlow != newFlow {
		diff.FlowID = &newFlow
	}
	if oldExec == nil || oldState != newState {
		diff.StateID = &newState
	}
	if oldExec == nil || oldExec.Status != newExec.Status {
		diff.Status = &newExec.Status
	}
	if oldExec == nil || oldExec.Depth() != newExec.Depth() {
		depth := newExec.Depth()
		diff.Depth = &depth
	}

	var oldConversation *attr.Map
	if oldExec != nil {
		oldConversation = oldExec.Conversation
	}
	if oldFlow == newFlow {
		diff.FlowScope = diffScope(oldScope, newScope)
	} else {
		diff.FlowScope = diffScope(nil, newScope)
	}
	diff.Conversation = diffScope(oldConversation, newExec.Conversation)
	diff.History = diffHistory(oldExec, newExec)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func position(e *Execution) (flowID, stateID string, scope *attr.Map) {
	if e == nil {
		return "", "", nil
	}
	s := e.ActiveSession()
	if s == nil {
		return e.FlowID, "", nil
	}
	return s.FlowID, s.StateID, s.Scope
}

func diffScope(old, new *attr.Map) map[string]any {
	delta := make(map[string]any)

	new.Range(func(k string, newVal any) bool {
		if !old.Contains(k) || !reflect.DeepEqual(old.Get(k), newVal) {
			delta[k] = newVal
		}
		return true
	})
	old.Range(func(k string, _ any) bool {
		if !new.Contains(k) {
			delta[k] = nil
		}
		return true
	})

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes append-only history.
func diffHistory(old, new *Execution) *HistoryDelta {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return &HistoryDelta{Appended: new.History}
	}
	if len(new.History) > len(old.History) {
		return &HistoryDelta{Appended: new.History[len(old.History):]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ExecutionDiff) IsEmpty() bool {
	return d.FlowID == nil &&
		d.StateID == nil &&
		d.Status == nil &&
		d.Depth == nil &&
		len(d.FlowScope) == 0 &&
		len(d.Conversation) == 0 &&
		d.History == nil
}

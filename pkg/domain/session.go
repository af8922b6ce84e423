package domain

import (
	"github.com/aretw0/arbor/pkg/attr"
)

// SessionStatus tracks a session through its lifecycle.
type SessionStatus string

const (
	SessionCreating SessionStatus = "creating"
	SessionStarting SessionStatus = "starting"
	SessionActive   SessionStatus = "active"
	SessionPaused   SessionStatus = "paused"
	// SessionSuspended marks a parent waiting on its subflow session.
	SessionSuspended SessionStatus = "suspended"
	SessionEnding   SessionStatus = "ending"
	SessionEnded    SessionStatus = "ended"
)

// Session is one activation of a flow on an execution's call stack.
//
// Flow and flash scopes persist with the execution. The request scope and
// the links to the flow definition and the conversation scope are transient
// and restored by the engine after loading.
type Session struct {
	ID      string        `json:"id"`
	FlowID  string        `json:"flow_id"`
	StateID string        `json:"state_id,omitempty"`
	Status  SessionStatus `json:"status"`
	Scope   *attr.Map     `json:"scope"`
	Flash   *attr.Map     `json:"flash"`

	flow         *Flow
	conversation *attr.Map
	request      *attr.Map
}

// NewSession creates a session for flow in the creating status.
func NewSession(id string, flow *Flow, conversation *attr.Map) *Session {
	return &Session{
		ID:           id,
		FlowID:       flow.ID,
		Status:       SessionCreating,
		Scope:        attr.New(),
		Flash:        attr.New(),
		flow:         flow,
		conversation: conversation,
		request:      attr.New(),
	}
}

// Flow returns the linked flow definition (nil until linked after a restore).
func (s *Session) Flow() *Flow { return s.flow }

// LinkFlow attaches the flow definition after a restore.
func (s *Session) LinkFlow(f *Flow) { s.flow = f }

// State returns the current state definition.
func (s *Session) State() (*State, error) {
	if s.flow == nil {
		return nil, &NoSuchStateError{FlowID: s.FlowID, StateID: s.StateID}
	}
	return s.flow.State(s.StateID)
}

// FlowScope returns the flow scope.
func (s *Session) FlowScope() *attr.Map {
	if s.Scope == nil {
		s.Scope = attr.New()
	}
	return s.Scope
}

// FlashScope returns the flash scope.
func (s *Session) FlashScope() *attr.Map {
	if s.Flash == nil {
		s.Flash = attr.New()
	}
	return s.Flash
}

// RequestScope returns the request scope, cleared at the end of every request.
func (s *Session) RequestScope() *attr.Map {
	if s.request == nil {
		s.request = attr.New()
	}
	return s.request
}

// ConversationScope returns the conversation scope shared by every session of the execution.
func (s *Session) ConversationScope() *attr.Map { return s.conversation }

// IsActive reports whether the session can process events. At most one
// session of an execution is active; parents of a running subflow are
// suspended.
func (s *Session) IsActive() bool {
	return s.Status == SessionActive || s.Status == SessionPaused
}

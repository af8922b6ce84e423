package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/aretw0/arbor/pkg/attr"
)

// ExecutionStatus is the global status of an execution.
type ExecutionStatus string

const (
	StatusNotStarted ExecutionStatus = "not_started"
	StatusActive     ExecutionStatus = "active"
	StatusEnded      ExecutionStatus = "ended"
)

// Outcome is the result of an ended session.
type Outcome struct {
	ID     string    `json:"id"`
	Output *attr.Map `json:"output,omitempty"`
}

// Execution is a running conversation: a call stack of sessions, root first,
// plus the conversation scope every session shares. It is the unit persisted
// between requests.
type Execution struct {
	Key          string          `json:"key"`
	FlowID       string          `json:"flow_id"`
	Status       ExecutionStatus `json:"status"`
	Stack        []*Session      `json:"stack"`
	Conversation *attr.Map       `json:"conversation"`
	Outcome      *Outcome        `json:"outcome,omitempty"`
	// History records every state entered, as "flow:state".
	History   []string  `json:"history,omitempty"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	restored bool
}

// NewExecution creates an execution of flowID that has not started.
func NewExecution(key, flowID string) *Execution {
	now := time.Now()
	return &Execution{
		Key:          key,
		FlowID:       flowID,
		Status:       StatusNotStarted,
		Conversation: attr.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ActiveSession returns the top of the stack, or nil.
func (e *Execution) ActiveSession() *Session {
	if len(e.Stack) == 0 {
		return nil
	}
	return e.Stack[len(e.Stack)-1]
}

// Parent returns the session below the active one, or nil.
func (e *Execution) Parent() *Session {
	if len(e.Stack) < 2 {
		return nil
	}
	return e.Stack[len(e.Stack)-2]
}

// Depth returns the number of sessions on the stack.
func (e *Execution) Depth() int { return len(e.Stack) }

// IsActive reports whether the execution has started and not ended.
func (e *Execution) IsActive() bool { return e.Status == StatusActive }

// HasEnded reports whether the execution has ended.
func (e *Execution) HasEnded() bool { return e.Status == StatusEnded }

// Spawn pushes a new session for flow, sharing the conversation scope.
func (e *Execution) Spawn(flow *Flow) *Session {
	if e.Conversation == nil {
		e.Conversation = attr.New()
	}
	e.Sequence++
	s := NewSession(strconv.Itoa(e.Sequence), flow, e.Conversation)
	e.Stack = append(e.Stack, s)
	e.Status = StatusActive
	return s
}

// Pop removes the active session. Popping the last session ends the
// execution with outcome.
func (e *Execution) Pop(outcome *Outcome) *Session {
	s := e.ActiveSession()
	if s == nil {
		return nil
	}
	e.Stack = e.Stack[:len(e.Stack)-1]
	if len(e.Stack) == 0 {
		e.Status = StatusEnded
		e.Outcome = outcome
	}
	return s
}

// Restored reports whether the execution was decoded from storage and its
// transient references have not been re-linked yet.
func (e *Execution) Restored() bool { return e.restored }

// MarkLinked records that transient references were re-linked.
func (e *Execution) MarkLinked() { e.restored = false }

// UnmarshalJSON decodes a persisted execution and links every session to
// the shared conversation scope.
func (e *Execution) UnmarshalJSON(data []byte) error {
	type plain Execution
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Execution(p)
	if e.Conversation == nil {
		e.Conversation = attr.New()
	}
	for _, s := range e.Stack {
		s.conversation = e.Conversation
	}
	e.restored = true
	return nil
}

// Clone returns a deep copy through the JSON snapshot form. The copy is
// marked as restored. Values that do not survive JSON lose their Go types:
// numbers come back as float64 and structs as maps. The typed numeric
// accessors of attr.Map convert such numbers back, so RequiredInt and
// attr.Get[int] keep working on a restored execution.
func (e *Execution) Clone() (*Execution, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var c Execution
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

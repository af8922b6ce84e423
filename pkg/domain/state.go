package domain

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/expression"
	"github.com/aretw0/arbor/pkg/mapping"
	"github.com/aretw0/arbor/pkg/message"
)

// Kind is the closed set of state behaviors.
type Kind string

const (
	// KindView renders a view and pauses, waiting for the next user event.
	KindView Kind = "view"
	// KindAction executes its actions and transitions on the last result event.
	KindAction Kind = "action"
	// KindSubflow starts another flow as a nested session and transitions on its outcome.
	KindSubflow Kind = "subflow"
	// KindDecision evaluates a condition and moves to Then or Else.
	KindDecision Kind = "decision"
	// KindEnd terminates the session. Its id becomes the session outcome.
	KindEnd Kind = "end"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindView, KindAction, KindSubflow, KindDecision, KindEnd:
		return true
	}
	return false
}

// Transitionable reports whether states of this kind carry transitions.
func (k Kind) Transitionable() bool {
	return k == KindView || k == KindAction || k == KindSubflow
}

// State is one node of a flow graph. Fields outside the common block are
// only meaningful for the matching Kind.
type State struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	Attributes        *attr.Map          `json:"attributes,omitempty"`
	EntryActions      []Action           `json:"-"`
	ExitActions       []Action           `json:"-"`
	ExceptionHandlers []ExceptionHandler `json:"-"`
	Transitions       []*Transition      `json:"transitions,omitempty"`

	// View is rendered by KindView states. End states may render a final view.
	View View `json:"-"`

	// Actions are executed by KindAction states.
	Actions []Action `json:"-"`

	// Subflow is the id of the flow started by KindSubflow states.
	Subflow string `json:"subflow,omitempty"`
	// SubflowInput maps the parent request context into the subflow input.
	SubflowInput mapping.Mapper `json:"-"`
	// SubflowOutput maps the subflow output back into the parent request context.
	SubflowOutput mapping.Mapper `json:"-"`

	// Test, Then and Else drive KindDecision states.
	Test expression.Condition `json:"-"`
	Then string               `json:"then,omitempty"`
	Else string               `json:"else,omitempty"`

	// Output maps the request context into the session output of KindEnd states.
	Output mapping.Mapper `json:"-"`
}

// Transition returns the first transition matching eventID, or nil.
func (s *State) Transition(rc RequestContext, eventID string) (*Transition, error) {
	return matchTransition(rc, s.Transitions, eventID)
}

func (s *State) String() string {
	return fmt.Sprintf("%s[%s]", s.ID, s.Kind)
}

func matchTransition(rc RequestContext, transitions []*Transition, eventID string) (*Transition, error) {
	for _, t := range transitions {
		ok, err := t.Matches(rc, eventID)
		if err != nil {
			return nil, err
		}
		if ok {
			return t, nil
		}
	}
	return nil, nil
}

// View renders a view state.
type View interface {
	Render(rc RequestContext) (*Rendering, error)
}

// Rendering is the outcome of rendering a view: what the host should display.
type Rendering struct {
	StateID string         `json:"state_id"`
	View    string         `json:"view,omitempty"`
	Content string         `json:"content,omitempty"`
	Model   map[string]any `json:"model,omitempty"`
	// Messages are the messages raised by the request that rendered the view.
	Messages []message.Message `json:"messages,omitempty"`
}

// ViewFunc adapts a function into a View.
type ViewFunc func(rc RequestContext) (*Rendering, error)

func (f ViewFunc) Render(rc RequestContext) (*Rendering, error) { return f(rc) }

package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/model"
)

// StateBuilder provides a fluent API for configuring a state. Bind and Do
// apply to the transition added last.
type StateBuilder struct {
	m       *model.StateModel
	builder *Builder
}

// On adds a transition on event to the state to. An empty to runs the
// transition actions without leaving the state.
func (s *StateBuilder) On(event, to string) *StateBuilder {
	s.m.Transitions = append(s.m.Transitions, model.TransitionModel{On: event, To: to})
	return s
}

// OnException routes errors of type errType raised in this state to the state to.
func (s *StateBuilder) OnException(errType, to string) *StateBuilder {
	s.m.Transitions = append(s.m.Transitions, model.TransitionModel{OnException: errType, To: to})
	return s
}

// Bind maps the request parameter name into the expression value when the
// last transition runs. typ forces a conversion and may be empty.
func (s *StateBuilder) Bind(name, value, typ string) *StateBuilder {
	t := s.last("Bind")
	if t != nil {
		t.Bind = append(t.Bind, model.MappingModel{Name: name, Value: value, Type: typ})
	}
	return s
}

// Do appends actions to the last transition.
func (s *StateBuilder) Do(actions ...model.ActionModel) *StateBuilder {
	t := s.last("Do")
	if t != nil {
		t.Actions = append(t.Actions, actions...)
	}
	return s
}

func (s *StateBuilder) last(op string) *model.TransitionModel {
	if len(s.m.Transitions) == 0 {
		s.builder.errs = append(s.builder.errs, fmt.Errorf("state '%s': %s without a transition", s.m.ID, op))
		return nil
	}
	return &s.m.Transitions[len(s.m.Transitions)-1]
}

// Entry appends actions run when the state is entered.
func (s *StateBuilder) Entry(actions ...model.ActionModel) *StateBuilder {
	s.m.OnEntry = append(s.m.OnEntry, actions...)
	return s
}

// Exit appends actions run when the state is exited.
func (s *StateBuilder) Exit(actions ...model.ActionModel) *StateBuilder {
	s.m.OnExit = append(s.m.OnExit, actions...)
	return s
}

// Renders sets the view name. It defaults to the state id for view states.
func (s *StateBuilder) Renders(view string) *StateBuilder {
	s.m.View = view
	return s
}

// Input maps value into the subflow input key name.
func (s *StateBuilder) Input(name, value string) *StateBuilder {
	s.m.Input = append(s.m.Input, model.MappingModel{Name: name, Value: value})
	return s
}

// Output maps value to the output key name. On subflow states name is the
// subflow output key and value the parent-side expression.
func (s *StateBuilder) Output(name, value string) *StateBuilder {
	s.m.Output = append(s.m.Output, model.MappingModel{Name: name, Value: value})
	return s
}

// Attr sets a state attribute.
func (s *StateBuilder) Attr(key string, value any) *StateBuilder {
	if s.m.Attributes == nil {
		s.m.Attributes = make(map[string]any)
	}
	s.m.Attributes[key] = value
	return s
}

// Flow returns the flow builder, to continue a chain.
func (s *StateBuilder) Flow() *Builder {
	return s.builder
}

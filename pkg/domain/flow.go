package domain

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/mapping"
)

// Flow is an immutable graph of states. It is built once, registered and
// then shared by every execution; never mutate a registered Flow.
type Flow struct {
	ID           string
	StartStateID string
	Attributes   *attr.Map

	Variables         []*FlowVariable
	InputMapper       mapping.Mapper
	OutputMapper      mapping.Mapper
	StartActions      []Action
	EndActions        []Action
	ExceptionHandlers []ExceptionHandler
	GlobalTransitions []*Transition

	states map[string]*State
	order  []string
}

// NewFlow creates an empty flow.
func NewFlow(id string) *Flow {
	return &Flow{ID: id, Attributes: attr.New(), states: make(map[string]*State)}
}

// AddState adds s. The first state added becomes the start state unless
// StartStateID is already set.
func (f *Flow) AddState(s *State) error {
	if s.ID == "" {
		return fmt.Errorf("flow '%s': state id is required", f.ID)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("flow '%s': state '%s' has unknown kind %q", f.ID, s.ID, s.Kind)
	}
	if _, dup := f.states[s.ID]; dup {
		return fmt.Errorf("flow '%s': duplicate state id '%s'", f.ID, s.ID)
	}
	if f.states == nil {
		f.states = make(map[string]*State)
	}
	if s.Attributes == nil {
		s.Attributes = attr.New()
	}
	f.states[s.ID] = s
	f.order = append(f.order, s.ID)
	if f.StartStateID == "" {
		f.StartStateID = s.ID
	}
	return nil
}

// State returns the state with the given id.
func (f *Flow) State(id string) (*State, error) {
	s, ok := f.states[id]
	if !ok {
		return nil, &NoSuchStateError{FlowID: f.ID, StateID: id}
	}
	return s, nil
}

// StartState returns the start state.
func (f *Flow) StartState() (*State, error) {
	return f.State(f.StartStateID)
}

// States returns the states in declaration order.
func (f *Flow) States() []*State {
	out := make([]*State, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.states[id])
	}
	return out
}

// StateIDs returns the state ids in declaration order.
func (f *Flow) StateIDs() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// GlobalTransition returns the first global transition matching eventID, or nil.
func (f *Flow) GlobalTransition(rc RequestContext, eventID string) (*Transition, error) {
	return matchTransition(rc, f.GlobalTransitions, eventID)
}

// Validate checks that every literal target and subflow state refers to
// something resolvable. Subflow ids are checked with exists when non-nil.
func (f *Flow) Validate(exists func(flowID string) bool) error {
	if _, err := f.StartState(); err != nil {
		return err
	}
	check := func(from string, t *Transition) error {
		lit, ok := t.Target.(LiteralTarget)
		if !ok || lit == "" {
			return nil
		}
		if _, err := f.State(string(lit)); err != nil {
			return fmt.Errorf("transition %s from '%s': %w", t, from, err)
		}
		return nil
	}
	for _, s := range f.States() {
		for _, t := range s.Transitions {
			if err := check(s.ID, t); err != nil {
				return err
			}
		}
		switch s.Kind {
		case KindDecision:
			if s.Test == nil {
				return fmt.Errorf("flow '%s': decision state '%s' has no test", f.ID, s.ID)
			}
			for _, target := range []string{s.Then, s.Else} {
				if target == "" {
					continue
				}
				if _, err := f.State(target); err != nil {
					return err
				}
			}
		case KindSubflow:
			if s.Subflow == "" {
				return fmt.Errorf("flow '%s': subflow state '%s' has no subflow", f.ID, s.ID)
			}
			if exists != nil && !exists(s.Subflow) {
				return fmt.Errorf("flow '%s': subflow state '%s' refers to unknown flow '%s'", f.ID, s.ID, s.Subflow)
			}
		case KindView:
			if s.View == nil {
				return fmt.Errorf("flow '%s': view state '%s' has no view", f.ID, s.ID)
			}
		}
	}
	for _, t := range f.GlobalTransitions {
		if err := check("*", t); err != nil {
			return err
		}
	}
	return nil
}

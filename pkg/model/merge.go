package model

import (
	"maps"
	"slices"
)

// Merge folds parent into m. Values already set on m win. States merge by
// id and transitions by their On and OnException pair; parent entries that
// m does not declare are appended after m's own.
func (m *FlowModel) Merge(parent *FlowModel) {
	m.StartState = mergeString(m.StartState, parent.StartState)
	m.Attributes = mergeAttributes(m.Attributes, parent.Attributes)
	m.Vars = mergeVars(m.Vars, parent.Vars)
	m.Input = mergeMappings(m.Input, parent.Input)
	m.Output = mergeMappings(m.Output, parent.Output)
	m.OnStart = append(slices.Clone(parent.OnStart), m.OnStart...)
	m.OnEnd = append(slices.Clone(parent.OnEnd), m.OnEnd...)
	m.GlobalTransitions = mergeTransitions(m.GlobalTransitions, parent.GlobalTransitions)

	for _, ps := range parent.States {
		if s, ok := m.State(ps.ID); ok {
			s.merge(ps)
			continue
		}
		m.States = append(m.States, ps.clone())
	}
}

func (s *StateModel) merge(p StateModel) {
	s.Type = mergeString(s.Type, p.Type)
	s.Attributes = mergeAttributes(s.Attributes, p.Attributes)
	s.OnEntry = append(slices.Clone(p.OnEntry), s.OnEntry...)
	s.OnExit = append(slices.Clone(p.OnExit), s.OnExit...)
	s.Transitions = mergeTransitions(s.Transitions, p.Transitions)
	s.View = mergeString(s.View, p.View)
	if len(s.Actions) == 0 {
		s.Actions = slices.Clone(p.Actions)
	}
	s.Subflow = mergeString(s.Subflow, p.Subflow)
	s.Input = mergeMappings(s.Input, p.Input)
	s.Output = mergeMappings(s.Output, p.Output)
	s.Test = mergeString(s.Test, p.Test)
	s.Then = mergeString(s.Then, p.Then)
	s.Else = mergeString(s.Else, p.Else)
}

func (s StateModel) clone() StateModel {
	c := s
	c.Attributes = maps.Clone(s.Attributes)
	c.OnEntry = slices.Clone(s.OnEntry)
	c.OnExit = slices.Clone(s.OnExit)
	c.Transitions = make([]TransitionModel, len(s.Transitions))
	for i, t := range s.Transitions {
		c.Transitions[i] = t.clone()
	}
	c.Actions = slices.Clone(s.Actions)
	c.Input = slices.Clone(s.Input)
	c.Output = slices.Clone(s.Output)
	return c
}

// mergeableWith reports whether t and o describe the same trigger.
func (t TransitionModel) mergeableWith(o TransitionModel) bool {
	return t.On == o.On && t.OnException == o.OnException
}

func (t TransitionModel) clone() TransitionModel {
	c := t
	c.Bind = slices.Clone(t.Bind)
	c.Actions = slices.Clone(t.Actions)
	c.Attributes = maps.Clone(t.Attributes)
	return c
}

func mergeTransitions(child, parent []TransitionModel) []TransitionModel {
	out := make([]TransitionModel, len(child))
	copy(out, child)
	for _, p := range parent {
		merged := false
		for i := range out {
			if !out[i].mergeableWith(p) {
				continue
			}
			out[i].To = mergeString(out[i].To, p.To)
			out[i].Bind = mergeMappings(out[i].Bind, p.Bind)
			out[i].Actions = append(slices.Clone(p.Actions), out[i].Actions...)
			out[i].Attributes = mergeAttributes(out[i].Attributes, p.Attributes)
			merged = true
			break
		}
		if !merged {
			out = append(out, p.clone())
		}
	}
	return out
}

func mergeMappings(child, parent []MappingModel) []MappingModel {
	out := slices.Clone(child)
	for _, p := range parent {
		if !slices.ContainsFunc(out, func(m MappingModel) bool { return m.Name == p.Name }) {
			out = append(out, p)
		}
	}
	return out
}

func mergeVars(child, parent []VarModel) []VarModel {
	out := slices.Clone(child)
	for _, p := range parent {
		if !slices.ContainsFunc(out, func(v VarModel) bool { return v.Name == p.Name }) {
			out = append(out, p)
		}
	}
	return out
}

func mergeAttributes(child, parent map[string]any) map[string]any {
	if len(parent) == 0 {
		return child
	}
	out := maps.Clone(parent)
	maps.Copy(out, child)
	return out
}

func mergeString(child, parent string) string {
	if child != "" {
		return child
	}
	return parent
}

// Clone returns a deep copy of m.
func (m *FlowModel) Clone() *FlowModel {
	c := *m
	c.Attributes = maps.Clone(m.Attributes)
	c.Vars = slices.Clone(m.Vars)
	c.Input = slices.Clone(m.Input)
	c.Output = slices.Clone(m.Output)
	c.OnStart = slices.Clone(m.OnStart)
	c.OnEnd = slices.Clone(m.OnEnd)
	c.GlobalTransitions = make([]TransitionModel, len(m.GlobalTransitions))
	for i, t := range m.GlobalTransitions {
		c.GlobalTransitions[i] = t.clone()
	}
	c.States = make([]StateModel, len(m.States))
	for i, s := range m.States {
		c.States[i] = s.clone()
	}
	return &c
}

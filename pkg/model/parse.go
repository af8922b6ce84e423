package model

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML or JSON flow model and validates it.
func Parse(data []byte) (*FlowModel, error) {
	var m FlowModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse flow model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Decode builds a flow model from generic data such as document frontmatter
// and validates it. Scalars are converted loosely ("true" → true).
func Decode(raw map[string]any) (*FlowModel, error) {
	var m FlowModel
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode flow model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ValidationError lists every problem found in a flow model.
type ValidationError struct {
	FlowID   string
	Problems []string
}

func (e *ValidationError) Error() string {
	id := e.FlowID
	if id == "" {
		id = "<unnamed>"
	}
	return fmt.Sprintf("invalid flow model '%s': %s", id, strings.Join(e.Problems, "; "))
}

// Validate checks the structure of m. References to other flows and to
// registered actions are checked by the builder.
func (m *FlowModel) Validate() error {
	v := &ValidationError{FlowID: m.ID}
	if m.ID == "" {
		v.add("id is required")
	}
	if len(m.States) == 0 && m.Parent == "" {
		v.add("at least one state is required")
	}

	seen := make(map[string]bool, len(m.States))
	for i, s := range m.States {
		where := fmt.Sprintf("state[%d]", i)
		if s.ID == "" {
			v.add(where + ": id is required")
		} else {
			where = "state '" + s.ID + "'"
			if seen[s.ID] {
				v.add(where + ": duplicate id")
			}
			seen[s.ID] = true
		}
		s.validate(v, where)
	}
	if m.StartState != "" && m.Parent == "" && !seen[m.StartState] {
		v.add("start-state '" + m.StartState + "' is not a state")
	}

	for i, t := range m.GlobalTransitions {
		t.validate(v, fmt.Sprintf("global-transitions[%d]", i))
	}
	validateActions(v, "on-start", m.OnStart)
	validateActions(v, "on-end", m.OnEnd)
	validateMappings(v, "input", m.Input)
	validateMappings(v, "output", m.Output)
	for i, vm := range m.Vars {
		if vm.Name == "" {
			v.add(fmt.Sprintf("vars[%d]: name is required", i))
		}
	}

	if len(v.Problems) > 0 {
		return v
	}
	return nil
}

func (v *ValidationError) add(problem string) {
	v.Problems = append(v.Problems, problem)
}

func (s StateModel) validate(v *ValidationError, where string) {
	switch s.Type {
	case TypeView, TypeAction, TypeEnd:
	case TypeDecision:
		if s.Test == "" {
			v.add(where + ": decision requires test")
		}
		if s.Then == "" && s.Else == "" {
			v.add(where + ": decision requires then or else")
		}
	case TypeSubflow:
		if s.Subflow == "" {
			v.add(where + ": subflow state requires subflow")
		}
	case "":
		v.add(where + ": type is required")
	default:
		v.add(fmt.Sprintf("%s: unknown type %q", where, s.Type))
	}
	if len(s.Transitions) > 0 && (s.Type == TypeDecision || s.Type == TypeEnd) {
		v.add(where + ": " + s.Type + " states have no transitions")
	}
	for i, t := range s.Transitions {
		t.validate(v, fmt.Sprintf("%s transition[%d]", where, i))
	}
	validateActions(v, where+" on-entry", s.OnEntry)
	validateActions(v, where+" on-exit", s.OnExit)
	validateActions(v, where+" actions", s.Actions)
	validateMappings(v, where+" input", s.Input)
	validateMappings(v, where+" output", s.Output)
}

func (t TransitionModel) validate(v *ValidationError, where string) {
	if (t.On == "") == (t.OnException == "") {
		v.add(where + ": exactly one of on and on-exception is required")
	}
	if t.OnException != "" && len(t.Bind) > 0 {
		v.add(where + ": on-exception transitions cannot bind")
	}
	validateActions(v, where+" actions", t.Actions)
	validateMappings(v, where+" bind", t.Bind)
}

func validateActions(v *ValidationError, where string, actions []ActionModel) {
	for i, a := range actions {
		n := 0
		for _, s := range []string{a.Evaluate, a.Set, a.Call} {
			if s != "" {
				n++
			}
		}
		if n != 1 {
			v.add(fmt.Sprintf("%s[%d]: exactly one of evaluate, set and call is required", where, i))
		}
		if a.Set != "" && a.Value == "" {
			v.add(fmt.Sprintf("%s[%d]: set requires value", where, i))
		}
	}
}

func validateMappings(v *ValidationError, where string, mappings []MappingModel) {
	for i, m := range mappings {
		if m.Name == "" {
			v.add(fmt.Sprintf("%s[%d]: name is required", where, i))
		}
	}
}

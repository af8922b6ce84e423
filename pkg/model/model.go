package model

// FlowModel is the declarative form of a flow, as written in YAML, JSON or
// Markdown frontmatter. The builder package compiles it into a domain.Flow.
type FlowModel struct {
	ID string `json:"id" yaml:"id" mapstructure:"id"`
	// Parent names a model whose states and transitions are merged into this one.
	Parent     string         `json:"parent,omitempty" yaml:"parent,omitempty" mapstructure:"parent"`
	StartState string         `json:"start-state,omitempty" yaml:"start-state,omitempty" mapstructure:"start-state"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`

	Vars   []VarModel     `json:"vars,omitempty" yaml:"vars,omitempty" mapstructure:"vars"`
	Input  []MappingModel `json:"input,omitempty" yaml:"input,omitempty" mapstructure:"input"`
	Output []MappingModel `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`

	OnStart []ActionModel `json:"on-start,omitempty" yaml:"on-start,omitempty" mapstructure:"on-start"`
	OnEnd   []ActionModel `json:"on-end,omitempty" yaml:"on-end,omitempty" mapstructure:"on-end"`

	// GlobalTransitions apply to every state. Entries with OnException
	// become flow exception handlers.
	GlobalTransitions []TransitionModel `json:"global-transitions,omitempty" yaml:"global-transitions,omitempty" mapstructure:"global-transitions"`

	States []StateModel `json:"states" yaml:"states" mapstructure:"states"`
}

// State types accepted in StateModel.Type.
const (
	TypeView     = "view"
	TypeAction   = "action"
	TypeDecision = "decision"
	TypeSubflow  = "subflow"
	TypeEnd      = "end"
)

// StateModel declares one state. Which fields apply depends on Type.
type StateModel struct {
	ID         string         `json:"id" yaml:"id" mapstructure:"id"`
	Type       string         `json:"type" yaml:"type" mapstructure:"type"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`

	OnEntry     []ActionModel     `json:"on-entry,omitempty" yaml:"on-entry,omitempty" mapstructure:"on-entry"`
	OnExit      []ActionModel     `json:"on-exit,omitempty" yaml:"on-exit,omitempty" mapstructure:"on-exit"`
	Transitions []TransitionModel `json:"transitions,omitempty" yaml:"transitions,omitempty" mapstructure:"transitions"`

	// View names the view of view states and the final view of end states.
	View string `json:"view,omitempty" yaml:"view,omitempty" mapstructure:"view"`

	Actions []ActionModel `json:"actions,omitempty" yaml:"actions,omitempty" mapstructure:"actions"`

	Subflow string `json:"subflow,omitempty" yaml:"subflow,omitempty" mapstructure:"subflow"`
	// Input maps into the subflow input. Output maps subflow output back into
	// the parent; on end states it builds the session output.
	Input  []MappingModel `json:"input,omitempty" yaml:"input,omitempty" mapstructure:"input"`
	Output []MappingModel `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`

	Test string `json:"test,omitempty" yaml:"test,omitempty" mapstructure:"test"`
	Then string `json:"then,omitempty" yaml:"then,omitempty" mapstructure:"then"`
	Else string `json:"else,omitempty" yaml:"else,omitempty" mapstructure:"else"`
}

// TransitionModel declares a transition. Exactly one of On and OnException is set.
type TransitionModel struct {
	On          string `json:"on,omitempty" yaml:"on,omitempty" mapstructure:"on"`
	OnException string `json:"on-exception,omitempty" yaml:"on-exception,omitempty" mapstructure:"on-exception"`
	// To is a state id or an expression; empty means no navigation.
	To string `json:"to,omitempty" yaml:"to,omitempty" mapstructure:"to"`
	// Bind maps request parameters into the request context before the actions run.
	Bind       []MappingModel `json:"bind,omitempty" yaml:"bind,omitempty" mapstructure:"bind"`
	Actions    []ActionModel  `json:"actions,omitempty" yaml:"actions,omitempty" mapstructure:"actions"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`
}

// ActionModel declares an action. Exactly one of Evaluate, Set and Call is set.
type ActionModel struct {
	Evaluate string `json:"evaluate,omitempty" yaml:"evaluate,omitempty" mapstructure:"evaluate"`
	// Result receives the value of Evaluate.
	Result string `json:"result,omitempty" yaml:"result,omitempty" mapstructure:"result"`

	Set   string `json:"set,omitempty" yaml:"set,omitempty" mapstructure:"set"`
	Value string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`

	// Call names an action registered with the builder.
	Call string `json:"call,omitempty" yaml:"call,omitempty" mapstructure:"call"`
}

// MappingModel declares one mapping. Name is the key on the outer side
// (input key, output key, request parameter); Value is the expression on the
// flow side and defaults to Name.
type MappingModel struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	// Type forces a conversion: string, bool, int, int64, float64, duration, time or []string.
	Type string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
}

// Expression returns Value, or Name when Value is empty.
func (m MappingModel) Expression() string {
	if m.Value == "" {
		return m.Name
	}
	return m.Value
}

// VarModel declares a flow variable. Value is an expression evaluated when
// the session starts; an empty Value creates an empty map.
type VarModel struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Value string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
}

// State returns the state model with the given id.
func (m *FlowModel) State(id string) (*StateModel, bool) {
	for i := range m.States {
		if m.States[i].ID == id {
			return &m.States[i], true
		}
	}
	return nil, false
}

// StateIDs returns the state ids in declaration order.
func (m *FlowModel) StateIDs() []string {
	ids := make([]string, len(m.States))
	for i, s := range m.States {
		ids[i] = s.ID
	}
	return ids
}

// SubflowIDs returns the ids of the flows started by subflow states.
func (m *FlowModel) SubflowIDs() []string {
	var ids []string
	for _, s := range m.States {
		if s.Type == TypeSubflow && s.Subflow != "" {
			ids = append(ids, s.Subflow)
		}
	}
	return ids
}

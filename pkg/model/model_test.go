package model_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookingYAML = `
id: booking
start-state: enterDetails
vars:
  - name: booking
input:
  - name: hotelId
    required: true
states:
  - id: enterDetails
    type: view
    view: details
    transitions:
      - on: proceed
        to: review
        bind:
          - name: nights
            value: booking.nights
            type: int
      - on-exception: "*"
        to: enterDetails
  - id: review
    type: decision
    test: booking.nights > 0
    then: confirmed
    else: enterDetails
  - id: confirmed
    type: end
    output:
      - name: nights
        value: booking.nights
`

func TestParse(t *testing.T) {
	m, err := model.Parse([]byte(bookingYAML))
	require.NoError(t, err)

	assert.Equal(t, "booking", m.ID)
	assert.Equal(t, "enterDetails", m.StartState)
	assert.Equal(t, []string{"enterDetails", "review", "confirmed"}, m.StateIDs())
	require.Len(t, m.Input, 1)
	assert.True(t, m.Input[0].Required)
	assert.Equal(t, "hotelId", m.Input[0].Expression())

	s, ok := m.State("enterDetails")
	require.True(t, ok)
	require.Len(t, s.Transitions, 2)
	assert.Equal(t, "booking.nights", s.Transitions[0].Bind[0].Expression())
	assert.Equal(t, "int", s.Transitions[0].Bind[0].Type)
	assert.Equal(t, "*", s.Transitions[1].OnException)
}

func TestParse_JSON(t *testing.T) {
	m, err := model.Parse([]byte(`{"id":"j","states":[{"id":"a","type":"end"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "j", m.ID)
}

func TestDecode(t *testing.T) {
	m, err := model.Decode(map[string]any{
		"id": "doc",
		"states": []any{
			map[string]any{"id": "a", "type": "view", "transitions": []any{map[string]any{"on": "next", "to": "b"}}},
			map[string]any{"id": "b", "type": "end"},
		},
		"input": []any{map[string]any{"name": "x", "required": "true"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.StateIDs())
	assert.True(t, m.Input[0].Required)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		problem string
	}{
		{"missing id", `states: [{id: a, type: end}]`, "id is required"},
		{"no states", `id: f`, "at least one state is required"},
		{"duplicate", `{id: f, states: [{id: a, type: end}, {id: a, type: end}]}`, "duplicate id"},
		{"unknown type", `{id: f, states: [{id: a, type: wizard}]}`, `unknown type "wizard"`},
		{"decision without test", `{id: f, states: [{id: a, type: decision, then: a}]}`, "decision requires test"},
		{"subflow without id", `{id: f, states: [{id: a, type: subflow}]}`, "requires subflow"},
		{"on and on-exception", `{id: f, states: [{id: a, type: view, transitions: [{on: x, on-exception: y}]}]}`, "exactly one of on and on-exception"},
		{"action ambiguity", `{id: f, states: [{id: a, type: action, actions: [{evaluate: x, call: y}]}]}`, "exactly one of evaluate, set and call"},
		{"bad start", `{id: f, start-state: z, states: [{id: a, type: end}]}`, "start-state 'z'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Parse([]byte(tt.yaml))
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tt.problem)
		})
	}
}

func TestMerge(t *testing.T) {
	parent := &model.FlowModel{
		ID:         "base",
		StartState: "start",
		Attributes: map[string]any{"secured": true, "theme": "dark"},
		GlobalTransitions: []model.TransitionModel{
			{On: "cancel", To: "cancelled"},
		},
		States: []model.StateModel{
			{ID: "start", Type: model.TypeView, View: "base-start", Transitions: []model.TransitionModel{{On: "next", To: "cancelled"}, {On: "help", To: "start"}}},
			{ID: "cancelled", Type: model.TypeEnd},
		},
	}
	child := &model.FlowModel{
		ID:         "child",
		Parent:     "base",
		Attributes: map[string]any{"theme": "light"},
		States: []model.StateModel{
			{ID: "start", Transitions: []model.TransitionModel{{On: "next", To: "done"}}},
			{ID: "done", Type: model.TypeEnd},
		},
	}

	child.Merge(parent)

	assert.Equal(t, "start", child.StartState)
	assert.Equal(t, map[string]any{"secured": true, "theme": "light"}, child.Attributes)
	assert.Equal(t, []string{"start", "done", "cancelled"}, child.StateIDs())
	start, _ := child.State("start")
	assert.Equal(t, model.TypeView, start.Type)
	assert.Equal(t, "base-start", start.View)
	require.Len(t, start.Transitions, 2)
	assert.Equal(t, "done", start.Transitions[0].To)
	assert.Equal(t, "help", start.Transitions[1].On)
	assert.Len(t, child.GlobalTransitions, 1)

	start.Transitions[1].To = "changed"
	ps := parent.States[0]
	assert.Equal(t, "start", ps.Transitions[1].To)
}

func TestModelRegistry_ParentHierarchy(t *testing.T) {
	foo := &model.FlowModel{ID: "foo"}
	bar := &model.FlowModel{ID: "bar"}
	parent := model.NewModelRegistry()
	parent.Add(foo)
	parent.Add(bar)

	child := model.NewModelRegistry()
	child.SetParentRegistry(parent)
	foo2 := &model.FlowModel{ID: "foo"}
	child.Add(foo2)

	got, err := child.Lookup("foo")
	require.NoError(t, err)
	assert.Same(t, foo2, got)
	got, err = child.Lookup("bar")
	require.NoError(t, err)
	assert.Same(t, bar, got)

	_, err = child.Lookup("bogus")
	var nf *registry.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, ok := child.Holder("bar")
	assert.False(t, ok)
}

func TestModelRegistry_Resolve(t *testing.T) {
	reg := model.NewModelRegistry()
	reg.Add(&model.FlowModel{ID: "base", States: []model.StateModel{{ID: "end", Type: model.TypeEnd}}})
	reg.Add(&model.FlowModel{ID: "child", Parent: "base", States: []model.StateModel{{ID: "a", Type: model.TypeView}}})
	reg.Add(&model.FlowModel{ID: "loop1", Parent: "loop2"})
	reg.Add(&model.FlowModel{ID: "loop2", Parent: "loop1"})

	m, err := reg.Resolve("child")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "end"}, m.StateIDs())

	registered, _ := reg.Lookup("child")
	assert.Len(t, registered.States, 1)

	_, err = reg.Resolve("loop1")
	assert.ErrorContains(t, err, "parent cycle")
}

func TestSourceHolder_DetectsChanges(t *testing.T) {
	src := `{id: f, states: [{id: a, type: end}]}`
	loads := 0
	h := model.NewSourceHolder(func() ([]byte, error) {
		loads++
		return []byte(src), nil
	})

	assert.False(t, h.HasChanged())
	m, err := h.Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, m.StateIDs())
	assert.False(t, h.HasChanged())

	src = `{id: f, states: [{id: a, type: end}, {id: b, type: end}]}`
	assert.True(t, h.HasChanged())
	require.NoError(t, h.Refresh())
	m, err = h.Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.StateIDs())
	assert.False(t, h.HasChanged())

	src = `{id: f}`
	assert.Error(t, h.Refresh())
	m, err = h.Get()
	require.NoError(t, err)
	assert.Len(t, m.States, 2)
	assert.Positive(t, loads)
}

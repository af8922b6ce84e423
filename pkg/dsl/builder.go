package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/builder"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/model"
)

// Builder manages the flow construction.
type Builder struct {
	m      model.FlowModel
	states map[string]*StateBuilder
	order  []string
	errs   []error
}

// New creates a new flow builder.
func New(id string) *Builder {
	return &Builder{
		m:      model.FlowModel{ID: id},
		states: make(map[string]*StateBuilder),
	}
}

// StartAt sets the start state. By default the first state added starts the flow.
func (b *Builder) StartAt(id string) *Builder {
	b.m.StartState = id
	return b
}

// Parent names a model whose states this flow inherits.
func (b *Builder) Parent(id string) *Builder {
	b.m.Parent = id
	return b
}

// Attr sets a flow attribute.
func (b *Builder) Attr(key string, value any) *Builder {
	if b.m.Attributes == nil {
		b.m.Attributes = make(map[string]any)
	}
	b.m.Attributes[key] = value
	return b
}

// Var declares a flow variable created from expr, or an empty map when expr is empty.
func (b *Builder) Var(name, expr string) *Builder {
	b.m.Vars = append(b.m.Vars, model.VarModel{Name: name, Value: expr})
	return b
}

// Input maps the input key name into the flow-side expression value.
func (b *Builder) Input(name, value string, required bool) *Builder {
	b.m.Input = append(b.m.Input, model.MappingModel{Name: name, Value: value, Required: required})
	return b
}

// Output maps the flow-side expression value to the output key name.
func (b *Builder) Output(name, value string) *Builder {
	b.m.Output = append(b.m.Output, model.MappingModel{Name: name, Value: value})
	return b
}

// OnStart appends actions run when the flow starts.
func (b *Builder) OnStart(actions ...model.ActionModel) *Builder {
	b.m.OnStart = append(b.m.OnStart, actions...)
	return b
}

// OnEnd appends actions run when the flow ends.
func (b *Builder) OnEnd(actions ...model.ActionModel) *Builder {
	b.m.OnEnd = append(b.m.OnEnd, actions...)
	return b
}

// Global adds a transition available from every state.
func (b *Builder) Global(event, to string) *Builder {
	b.m.GlobalTransitions = append(b.m.GlobalTransitions, model.TransitionModel{On: event, To: to})
	return b
}

// GlobalException routes errors of type errType raised anywhere in the flow to the state to.
func (b *Builder) GlobalException(errType, to string) *Builder {
	b.m.GlobalTransitions = append(b.m.GlobalTransitions, model.TransitionModel{OnException: errType, To: to})
	return b
}

// View adds a view state rendering the view named like the state.
func (b *Builder) View(id string) *StateBuilder {
	return b.add(id, model.TypeView)
}

// Action adds an action state running actions in order.
func (b *Builder) Action(id string, actions ...model.ActionModel) *StateBuilder {
	s := b.add(id, model.TypeAction)
	s.m.Actions = append(s.m.Actions, actions...)
	return s
}

// Decision adds a decision state.
func (b *Builder) Decision(id, test, then, otherwise string) *StateBuilder {
	s := b.add(id, model.TypeDecision)
	s.m.Test, s.m.Then, s.m.Else = test, then, otherwise
	return s
}

// Subflow adds a subflow state starting flowID.
func (b *Builder) Subflow(id, flowID string) *StateBuilder {
	s := b.add(id, model.TypeSubflow)
	s.m.Subflow = flowID
	return s
}

// End adds an end state.
func (b *Builder) End(id string) *StateBuilder {
	return b.add(id, model.TypeEnd)
}

// add returns the state id, creating it with typ if needed. Re-adding a
// state with another type is recorded as an error.
func (b *Builder) add(id, typ string) *StateBuilder {
	if s, ok := b.states[id]; ok {
		if s.m.Type != typ {
			b.errs = append(b.errs, fmt.Errorf("state '%s' redeclared as %s (was %s)", id, typ, s.m.Type))
		}
		return s
	}
	s := &StateBuilder{m: &model.StateModel{ID: id, Type: typ}, builder: b}
	b.states[id] = s
	b.order = append(b.order, id)
	return s
}

// Model returns the validated flow model.
func (b *Builder) Model() (*model.FlowModel, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, fmt.Errorf("flow '%s': %w", b.m.ID, err)
	}
	m := b.m
	m.States = make([]model.StateModel, 0, len(b.order))
	for _, id := range b.order {
		m.States = append(m.States, *b.states[id].m)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Build compiles the flow with services. A nil services uses builder.NewServices().
func (b *Builder) Build(services *builder.Services) (*domain.Flow, error) {
	m, err := b.Model()
	if err != nil {
		return nil, err
	}
	return builder.New(services).Build(m)
}

// Loader returns a loader serving the flow model, for use with ports.RegisterModels.
func (b *Builder) Loader() (*memory.Loader, error) {
	m, err := b.Model()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewFromModels(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// Call references an action registered with the builder services.
func Call(name string) model.ActionModel { return model.ActionModel{Call: name} }

// Evaluate evaluates expr, assigning the value to result when it is set.
func Evaluate(expr, result string) model.ActionModel {
	return model.ActionModel{Evaluate: expr, Result: result}
}

// Set assigns the value of expr to the expression name.
func Set(name, expr string) model.ActionModel { return model.ActionModel{Set: name, Value: expr} }

package domain

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/expression"
)

// Action is a unit of behavior executed on state entry, on transition or by
// an action state. The returned event drives action states and vetoes
// transitions when it is not a pass (see IsPass).
type Action interface {
	Execute(rc RequestContext) (*Event, error)
}

// ActionFunc adapts a function into an Action.
type ActionFunc func(rc RequestContext) (*Event, error)

func (f ActionFunc) Execute(rc RequestContext) (*Event, error) {
	return f(rc)
}

// NamedAction labels an action, typically one resolved from a registry.
type NamedAction struct {
	Name   string
	Action Action
}

func (a *NamedAction) Execute(rc RequestContext) (*Event, error) {
	ev, err := a.Action.Execute(rc)
	if err != nil {
		return nil, fmt.Errorf("action '%s': %w", a.Name, err)
	}
	return ev, nil
}

// EvaluateAction evaluates an expression against the request context and
// optionally stores the result. Boolean results map to yes/no events; any
// other result is success.
type EvaluateAction struct {
	Expression expression.Expression
	Result     expression.Expression
}

func (a *EvaluateAction) Execute(rc RequestContext) (*Event, error) {
	v, err := a.Expression.Evaluate(rc)
	if err != nil {
		return nil, err
	}
	if a.Result != nil {
		if err := a.Result.Set(rc, v); err != nil {
			return nil, err
		}
	}
	if b, ok := v.(bool); ok {
		return Result(a.Expression.String(), b), nil
	}
	return Success(a.Expression.String()), nil
}

// SetAction assigns the value of Value to Name.
type SetAction struct {
	Name  expression.Expression
	Value expression.Expression
}

func (a *SetAction) Execute(rc RequestContext) (*Event, error) {
	v, err := a.Value.Evaluate(rc)
	if err != nil {
		return nil, err
	}
	if err := a.Name.Set(rc, v); err != nil {
		return nil, err
	}
	return Success(a.Name.String()), nil
}

// Package expression evaluates and assigns attribute paths against flow
// scopes, request parameters and arbitrary Go values.
//
// Two implementations ship with the package: Path, a dotted property path
// ("flowScope.order.total") that supports both reads and writes, and Expr, a
// compiled expr-lang program for arbitrary read expressions and conditions.
// Parser picks between them.
package expression

import (
	"fmt"
	"reflect"
)

// Expression is the narrow evaluate/set contract the flow engine and the
// mapping subsystem consume.
type Expression interface {
	// Evaluate reads the expression's value against target.
	Evaluate(target any) (any, error)
	// Set assigns value to the location the expression denotes in target.
	Set(target any, value any) error
	// String returns the expression source.
	String() string
}

// Typed is implemented by expressions that know which type their location
// holds in a given target. The mapping subsystem coerces values into that
// type before calling Set.
type Typed interface {
	ExpectedType(target any) (reflect.Type, bool)
}

// Environment is implemented by evaluation targets that expose named roots
// (scopes, parameters) rather than being the root themselves.
type Environment interface {
	Env() map[string]any
}

// Assignable is implemented by environments that accept writes to bare,
// unqualified names.
type Assignable interface {
	Assign(name string, value any) error
}

// EvaluationError reports a failed read or write.
type EvaluationError struct {
	Expression string
	Op         string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("expression [%s]: %s failed: %v", e.Expression, e.Op, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

const (
	opEvaluate = "evaluate"
	opSet      = "set"
)

// Static is a constant expression. It cannot be assigned to.
type Static struct {
	Value any
}

// NewStatic returns an expression that always evaluates to v.
func NewStatic(v any) *Static {
	return &Static{Value: v}
}

func (s *Static) Evaluate(any) (any, error) { return s.Value, nil }

func (s *Static) Set(any, any) error {
	return &EvaluationError{Expression: s.String(), Op: opSet, Err: fmt.Errorf("static expression is read-only")}
}

func (s *Static) String() string { return fmt.Sprint(s.Value) }

// Func adapts a function into a read-only Expression.
type Func struct {
	Name string
	Fn   func(target any) (any, error)
}

func (f *Func) Evaluate(target any) (any, error) {
	v, err := f.Fn(target)
	if err != nil {
		return nil, &EvaluationError{Expression: f.Name, Op: opEvaluate, Err: err}
	}
	return v, nil
}

func (f *Func) Set(any, any) error {
	return &EvaluationError{Expression: f.Name, Op: opSet, Err: fmt.Errorf("function expression is read-only")}
}

func (f *Func) String() string { return f.Name }

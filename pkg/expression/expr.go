package expression

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/aretw0/arbor/pkg/attr"
)

// Expr is a compiled expr-lang program. Undefined variables evaluate to nil.
// Assignment is only supported when the source is a plain property path, in
// which case Set and ExpectedType delegate to the equivalent Path.
type Expr struct {
	source  string
	program *vm.Program
	path    *Path
}

// Compile compiles s as a value expression.
func Compile(s string) (*Expr, error) {
	return compile(s, expr.AllowUndefinedVariables())
}

// CompileCondition compiles s as a boolean expression.
func CompileCondition(s string) (*Expr, error) {
	return compile(s, expr.AllowUndefinedVariables(), expr.AsBool())
}

func compile(s string, opts ...expr.Option) (*Expr, error) {
	for _, name := range shadowedBuiltins(s) {
		opts = append(opts, expr.DisableBuiltin(name))
	}
	program, err := expr.Compile(s, opts...)
	if err != nil {
		return nil, &EvaluationError{Expression: s, Op: "compile", Err: err}
	}
	e := &Expr{source: s, program: program}
	if IsPath(s) {
		e.path, _ = NewPath(s)
	}
	return e, nil
}

func (e *Expr) String() string { return e.source }

// Evaluate implements Expression.
func (e *Expr) Evaluate(target any) (any, error) {
	out, err := vm.Run(e.program, env(target))
	if err != nil {
		return nil, &EvaluationError{Expression: e.source, Op: opEvaluate, Err: err}
	}
	return out, nil
}

// Test evaluates the expression as a condition.
func (e *Expr) Test(target any) (bool, error) {
	out, err := e.Evaluate(target)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, &EvaluationError{Expression: e.source, Op: opEvaluate, Err: fmt.Errorf("result %v (%T) is not a bool", out, out)}
	}
	return b, nil
}

// Set implements Expression.
func (e *Expr) Set(target any, value any) error {
	if e.path == nil {
		return &EvaluationError{Expression: e.source, Op: opSet, Err: fmt.Errorf("expression is not assignable")}
	}
	return e.path.Set(target, value)
}

// ExpectedType implements Typed.
func (e *Expr) ExpectedType(target any) (reflect.Type, bool) {
	if e.path == nil {
		return nil, false
	}
	return e.path.ExpectedType(target)
}

// shadowedBuiltins lists builtin function names that s uses as bare
// identifiers, such as a scope attribute named count or len. Calls like
// len(x) parse as builtin nodes and are not reported.
func shadowedBuiltins(s string) []string {
	tree, err := parser.Parse(s)
	if err != nil {
		return nil
	}
	v := identifiers{}
	ast.Walk(&tree.Node, v)
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	return names
}

type identifiers map[string]struct{}

func (ids identifiers) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok {
		if _, known := builtin.Index[id.Value]; known {
			ids[id.Value] = struct{}{}
		}
	}
}

// Scope is the view of an *attr.Map inside an expression. Attributes are
// reachable as members (flowScope.name) or through Get (flowScope.Get('name')).
// Attributes named like a method are only reachable through Get.
type Scope map[string]any

// Get returns the attribute under key, or nil.
func (s Scope) Get(key string) any { return s[key] }

// Contains reports whether key is present.
func (s Scope) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// env builds the expr-lang environment. *attr.Map roots become plain maps
// and nested *attr.Map values become Scopes.
func env(target any) any {
	switch t := root(target).(type) {
	case nil:
		return map[string]any{}
	case *attr.Map:
		return flatten(t.AsMap())
	case map[string]any:
		return flatten(t)
	default:
		return t
	}
}

func flatten(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if am, ok := v.(*attr.Map); ok {
			out[k] = Scope(flatten(am.AsMap()))
			continue
		}
		out[k] = v
	}
	return out
}

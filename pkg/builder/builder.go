package builder

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/expression"
	"github.com/aretw0/arbor/pkg/mapping"
	"github.com/aretw0/arbor/pkg/model"
)

// Builder compiles flow models into flow definitions.
type Builder struct {
	services *Services
	// exists reports whether a subflow id is known. Nil skips the check.
	exists func(id string) bool
}

// New creates a builder. A nil s uses NewServices().
func New(s *Services) *Builder {
	if s == nil {
		s = NewServices()
	}
	return &Builder{services: s}
}

// CheckSubflows makes Build fail when a subflow state names a flow for
// which exists returns false.
func (b *Builder) CheckSubflows(exists func(id string) bool) *Builder {
	b.exists = exists
	return b
}

// Services returns the builder services.
func (b *Builder) Services() *Services { return b.services }

// Build compiles m into a new flow.
func (b *Builder) Build(m *model.FlowModel) (*domain.Flow, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c := &compilation{Services: b.services, flowID: m.ID}

	f := domain.NewFlow(m.ID)
	f.StartStateID = m.StartState
	f.Attributes = attr.FromMap(m.Attributes)

	for _, v := range m.Vars {
		fv, err := c.variable(v)
		if err != nil {
			return nil, err
		}
		f.Variables = append(f.Variables, fv)
	}

	var err error
	if len(m.Input) > 0 {
		if f.InputMapper, err = c.inward(m.Input); err != nil {
			return nil, c.fail("input", err)
		}
	}
	if len(m.Output) > 0 {
		if f.OutputMapper, err = c.outward(m.Output); err != nil {
			return nil, c.fail("output", err)
		}
	}
	if f.StartActions, err = c.actions(m.OnStart); err != nil {
		return nil, c.fail("on-start", err)
	}
	if f.EndActions, err = c.actions(m.OnEnd); err != nil {
		return nil, c.fail("on-end", err)
	}
	if f.GlobalTransitions, f.ExceptionHandlers, err = c.transitions(m.GlobalTransitions); err != nil {
		return nil, c.fail("global-transitions", err)
	}

	for _, sm := range m.States {
		st, err := c.state(sm)
		if err != nil {
			return nil, c.fail("state '"+sm.ID+"'", err)
		}
		if err := f.AddState(st); err != nil {
			return nil, err
		}
	}
	if err := f.Validate(b.exists); err != nil {
		return nil, err
	}
	b.services.Logger.Debug("flow built", "flow", f.ID, "states", len(m.States))
	return f, nil
}

// compilation carries the services through the build of one flow.
type compilation struct {
	*Services
	flowID string
}

func (c *compilation) fail(where string, err error) error {
	return fmt.Errorf("flow '%s' %s: %w", c.flowID, where, err)
}

func (c *compilation) state(sm model.StateModel) (*domain.State, error) {
	st := &domain.State{ID: sm.ID, Attributes: attr.FromMap(sm.Attributes)}
	var err error
	if st.EntryActions, err = c.actions(sm.OnEntry); err != nil {
		return nil, err
	}
	if st.ExitActions, err = c.actions(sm.OnExit); err != nil {
		return nil, err
	}
	if st.Transitions, st.ExceptionHandlers, err = c.transitions(sm.Transitions); err != nil {
		return nil, err
	}

	switch sm.Type {
	case model.TypeView:
		st.Kind = domain.KindView
		st.View, err = c.view(sm)
	case model.TypeAction:
		st.Kind = domain.KindAction
		st.Actions, err = c.actions(sm.Actions)
	case model.TypeDecision:
		st.Kind = domain.KindDecision
		st.Then, st.Else = sm.Then, sm.Else
		st.Test, err = c.Parser.ParseCondition(sm.Test)
	case model.TypeSubflow:
		st.Kind = domain.KindSubflow
		st.Subflow = sm.Subflow
		if len(sm.Input) > 0 {
			if st.SubflowInput, err = c.outward(sm.Input); err != nil {
				return nil, err
			}
		}
		if len(sm.Output) > 0 {
			st.SubflowOutput, err = c.inward(sm.Output)
		}
	case model.TypeEnd:
		st.Kind = domain.KindEnd
		if sm.View != "" {
			if st.View, err = c.view(sm); err != nil {
				return nil, err
			}
		}
		if len(sm.Output) > 0 {
			st.Output, err = c.outward(sm.Output)
		}
	default:
		err = fmt.Errorf("unknown state type %q", sm.Type)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (c *compilation) view(sm model.StateModel) (domain.View, error) {
	name := sm.View
	if name == "" {
		name = sm.ID
	}
	return c.Views.View(sm.ID, name)
}

// transitions splits models into event transitions and exception handlers.
func (c *compilation) transitions(models []model.TransitionModel) ([]*domain.Transition, []domain.ExceptionHandler, error) {
	var (
		out      []*domain.Transition
		handlers []domain.ExceptionHandler
	)
	for _, tm := range models {
		target, err := c.target(tm.To)
		if err != nil {
			return nil, nil, err
		}
		actions, err := c.actions(tm.Actions)
		if err != nil {
			return nil, nil, err
		}
		if tm.OnException != "" {
			handlers = append(handlers, &domain.TransitionExceptionHandler{
				Match:   domain.MatchErrorType(tm.OnException),
				Target:  target,
				Actions: actions,
			})
			continue
		}
		t := &domain.Transition{
			On:         tm.On,
			Target:     target,
			Actions:    actions,
			Attributes: attr.FromMap(tm.Attributes),
		}
		if len(tm.Bind) > 0 {
			if t.Bind, err = c.inward(tm.Bind); err != nil {
				return nil, nil, err
			}
		}
		out = append(out, t)
	}
	return out, handlers, nil
}

// target builds a literal target, or an expression target for ${...} and #{...}.
func (c *compilation) target(to string) (domain.TargetResolver, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, nil
	}
	if strings.HasPrefix(to, "${") || strings.HasPrefix(to, "#{") {
		e, err := c.Parser.Parse(to)
		if err != nil {
			return nil, err
		}
		return &domain.ExpressionTarget{Expression: e}, nil
	}
	return domain.LiteralTarget(to), nil
}

func (c *compilation) actions(models []model.ActionModel) ([]domain.Action, error) {
	var out []domain.Action
	for _, am := range models {
		a, err := c.action(am)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *compilation) action(am model.ActionModel) (domain.Action, error) {
	switch {
	case am.Call != "":
		a, err := c.Actions.Lookup(am.Call)
		if err != nil {
			return nil, err
		}
		return &domain.NamedAction{Name: am.Call, Action: a}, nil
	case am.Evaluate != "":
		e, err := c.Parser.Parse(am.Evaluate)
		if err != nil {
			return nil, err
		}
		a := &domain.EvaluateAction{Expression: e}
		if am.Result != "" {
			if a.Result, err = c.Parser.Parse(am.Result); err != nil {
				return nil, err
			}
		}
		return a, nil
	case am.Set != "":
		name, err := c.Parser.Parse(am.Set)
		if err != nil {
			return nil, err
		}
		value, err := c.Parser.Parse(am.Value)
		if err != nil {
			return nil, err
		}
		return &domain.SetAction{Name: name, Value: value}, nil
	}
	return nil, fmt.Errorf("empty action")
}

func (c *compilation) variable(vm model.VarModel) (*domain.FlowVariable, error) {
	if vm.Value == "" {
		return domain.NewFlowVariable(vm.Name, domain.Constant(func() any { return map[string]any{} })), nil
	}
	e, err := c.Parser.Parse(vm.Value)
	if err != nil {
		return nil, c.fail("var '"+vm.Name+"'", err)
	}
	return domain.NewFlowVariable(vm.Name, domain.ValueFactory{
		Create: func(rc domain.RequestContext) (any, error) { return e.Evaluate(rc) },
	}), nil
}

// inward maps an outer key (Name) into a flow-side expression (Value):
// flow input, transition bind and subflow output.
func (c *compilation) inward(models []model.MappingModel) (mapping.Mapper, error) {
	m := c.mapper()
	for _, mm := range models {
		source, err := expression.NewPath(mm.Name)
		if err != nil {
			return nil, err
		}
		target, err := c.Parser.Parse(mm.Expression())
		if err != nil {
			return nil, err
		}
		if target, err = c.typed(target, mm.Type); err != nil {
			return nil, err
		}
		m.Add(&mapping.Mapping{Source: source, Target: target, Required: mm.Required})
	}
	return m, nil
}

// outward maps a flow-side expression (Value) out to an outer key (Name):
// flow output, end state output and subflow input.
func (c *compilation) outward(models []model.MappingModel) (mapping.Mapper, error) {
	m := c.mapper()
	for _, mm := range models {
		source, err := c.Parser.Parse(mm.Expression())
		if err != nil {
			return nil, err
		}
		var target expression.Expression
		if target, err = expression.NewPath(mm.Name); err != nil {
			return nil, err
		}
		if target, err = c.typed(target, mm.Type); err != nil {
			return nil, err
		}
		m.Add(&mapping.Mapping{Source: source, Target: target, Required: mm.Required})
	}
	return m, nil
}

func (c *compilation) mapper() *mapping.DefaultMapper {
	return mapping.NewMapper(mapping.WithConversionService(c.Conversion), mapping.WithLogger(c.Logger))
}

var namedTypes = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"bool":     reflect.TypeFor[bool](),
	"int":      reflect.TypeFor[int](),
	"int64":    reflect.TypeFor[int64](),
	"float64":  reflect.TypeFor[float64](),
	"duration": reflect.TypeFor[time.Duration](),
	"time":     reflect.TypeFor[time.Time](),
	"[]string": reflect.TypeFor[[]string](),
}

func (c *compilation) typed(e expression.Expression, name string) (expression.Expression, error) {
	if name == "" {
		return e, nil
	}
	t, ok := namedTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown mapping type %q", name)
	}
	return &typedExpression{Expression: e, typ: t}, nil
}

// typedExpression forces the type a mapping converts values to.
type typedExpression struct {
	expression.Expression
	typ reflect.Type
}

func (e *typedExpression) ExpectedType(any) (reflect.Type, bool) { return e.typ, true }

package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/builder"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signup() *dsl.Builder {
	f := dsl.New("signup")
	f.Var("account", "")

	f.View("form").
		On("submit", "check").Bind("email", "account.email", "").Bind("age", "account.age", "int").
		On("cancel", "cancelled")

	f.Decision("check", "account.age >= 18", "welcome", "form")
	f.Action("welcome", dsl.Set("flowScope.greeting", "'hi ' + account.email")).
		On(domain.EventSuccess, "done")
	f.End("done").Output("email", "account.email").Output("greeting", "greeting")
	f.End("cancelled")
	return f
}

func TestBuilder_RunsInEngine(t *testing.T) {
	flow, err := signup().Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"form", "check", "welcome", "done", "cancelled"}, flow.StateIDs())

	engine := runtime.NewEngine(registry.NewFlowRegistry())
	ctx := context.Background()
	res, err := engine.Start(ctx, flow, nil, nil)
	require.NoError(t, err)
	require.True(t, res.Paused)

	res, err = engine.Resume(ctx, res.Execution, domain.NewExternal(ctx, "submit", attr.Of("email", "kid@example.com", "age", "12")))
	require.NoError(t, err)
	assert.Equal(t, "form", res.Rendering.StateID, "minors go back to the form")

	res, err = engine.Resume(ctx, res.Execution, domain.NewExternal(ctx, "submit", attr.Of("email", "ada@example.com", "age", "36")))
	require.NoError(t, err)
	require.True(t, res.Ended)
	assert.Equal(t, "done", res.Outcome.ID)
	assert.Equal(t, "ada@example.com", res.Outcome.Output.Get("email"))
	assert.Equal(t, "hi ada@example.com", res.Outcome.Output.Get("greeting"))
}

func TestBuilder_Model(t *testing.T) {
	f := signup().StartAt("form").Attr("title", "Sign up")
	f.Global("help", "form")
	f.GlobalException("NoMatchingTransitionError", "cancelled")
	f.OnStart(dsl.Evaluate("1 + 1", "flowScope.two"))
	f.OnEnd(dsl.Call("audit"))
	f.Input("referrer", "flowScope.referrer", false)
	f.Output("email", "account.email")

	m, err := f.Model()
	require.NoError(t, err)
	assert.Equal(t, "form", m.StartState)
	assert.Equal(t, "Sign up", m.Attributes["title"])
	require.Len(t, m.GlobalTransitions, 2)
	assert.Equal(t, "NoMatchingTransitionError", m.GlobalTransitions[1].OnException)

	form, ok := m.State("form")
	require.True(t, ok)
	require.Len(t, form.Transitions, 2)
	assert.Equal(t, []model.MappingModel{
		{Name: "email", Value: "account.email"},
		{Name: "age", Value: "account.age", Type: "int"},
	}, form.Transitions[0].Bind)

	_, err = builder.New(nil).Build(m)
	assert.ErrorContains(t, err, "no action found with id 'audit'")
}

func TestBuilder_Loader(t *testing.T) {
	loader, err := signup().Loader()
	require.NoError(t, err)

	ctx := context.Background()
	m, err := loader.Load(ctx, "signup")
	require.NoError(t, err)
	assert.Equal(t, "signup", m.ID)

	models := model.NewModelRegistry()
	require.NoError(t, ports.RegisterModels(ctx, loader, models))
	assert.Equal(t, []string{"signup"}, models.IDs())
}

func TestBuilder_Errors(t *testing.T) {
	f := dsl.New("broken")
	f.View("a").Bind("x", "y", "")
	_, err := f.Model()
	assert.ErrorContains(t, err, "state 'a': Bind without a transition")

	f = dsl.New("redeclared")
	f.View("a").On("go", "a")
	f.End("a")
	_, err = f.Model()
	assert.ErrorContains(t, err, "state 'a' redeclared as end (was view)")

	_, err = dsl.New("empty").Build(nil)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestStateBuilder_Chaining(t *testing.T) {
	f := dsl.New("wizard")
	f.View("step").
		Renders("wizard-step").
		Entry(dsl.Call("load")).
		Exit(dsl.Call("save")).
		Attr("title", "Step").
		On("next", "").Do(dsl.Set("flowScope.page", "2")).
		OnException("TypeMismatchError", "step").
		Flow().
		Subflow("pay", "payment").Input("amount", "total").Output("receipt", "flowScope.receipt").On("done", "end")
	f.End("end")

	m, err := f.Model()
	require.NoError(t, err)
	step, _ := m.State("step")
	assert.Equal(t, "wizard-step", step.View)
	assert.Equal(t, "load", step.OnEntry[0].Call)
	assert.Equal(t, "save", step.OnExit[0].Call)
	assert.Equal(t, "flowScope.page", step.Transitions[0].Actions[0].Set)
	assert.Equal(t, "TypeMismatchError", step.Transitions[1].OnException)

	pay, _ := m.State("pay")
	assert.Equal(t, "payment", pay.Subflow)
	assert.Equal(t, []string{"payment"}, m.SubflowIDs())
}

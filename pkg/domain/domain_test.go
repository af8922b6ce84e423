package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/expression"
)

type resource struct{ destroyed bool }

func (r *resource) Destroy() { r.destroyed = true }

func TestFlowVariable_Lifecycle(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		v := domain.NewFlowVariable("foo", domain.Constant(func() any { return "bar" }))
		rc := testutils.NewRequestContext(nil)

		require.NoError(t, v.Create(rc))
		assert.Equal(t, "bar", rc.FlowScope().Get("foo"))
	})

	t.Run("Destroy", func(t *testing.T) {
		res := &resource{}
		v := domain.NewFlowVariable("foo", domain.Constant(func() any { return res }))
		rc := testutils.NewRequestContext(nil)

		require.NoError(t, v.Create(rc))
		v.Destroy(rc)
		assert.False(t, rc.FlowScope().Contains("foo"))
		assert.True(t, res.destroyed)
	})

	t.Run("Restore", func(t *testing.T) {
		var restored any
		calls := 0
		v := domain.NewFlowVariable("foo", domain.ValueFactory{
			Create: func(domain.RequestContext) (any, error) { return "bar", nil },
			Restore: func(value any, _ domain.RequestContext) error {
				calls++
				restored = value
				return nil
			},
		})
		rc := testutils.NewRequestContext(nil)

		require.NoError(t, v.Create(rc))
		require.NoError(t, v.Restore(rc))
		assert.Equal(t, "bar", rc.FlowScope().Get("foo"))
		assert.Equal(t, "bar", restored)
		assert.Equal(t, 1, calls)
	})

	t.Run("Create Failure", func(t *testing.T) {
		boom := errors.New("boom")
		v := domain.NewFlowVariable("foo", domain.ValueFactory{
			Create: func(domain.RequestContext) (any, error) { return nil, boom },
		})
		rc := testutils.NewRequestContext(nil)

		assert.ErrorIs(t, v.Create(rc), boom)
		assert.False(t, rc.FlowScope().Contains("foo"))
	})
}

func TestTransition_Matching(t *testing.T) {
	rc := testutils.NewRequestContext(nil)
	st := &domain.State{ID: "form", Kind: domain.KindView, Transitions: []*domain.Transition{
		{On: "submit", Target: domain.LiteralTarget("review")},
		{On: domain.WildcardEvent, Target: domain.LiteralTarget("fallback")},
		{On: "cancel", Target: domain.LiteralTarget("never")},
	}}

	cases := map[string]string{
		"submit": "review",
		"cancel": "fallback",
		"other":  "fallback",
	}
	for event, want := range cases {
		t.Run(event, func(t *testing.T) {
			tr, err := st.Transition(rc, event)
			require.NoError(t, err)
			require.NotNil(t, tr)
			target, err := tr.TargetID(rc)
			require.NoError(t, err)
			assert.Equal(t, want, target)
		})
	}

	t.Run("No Match", func(t *testing.T) {
		only := &domain.State{ID: "s", Kind: domain.KindView, Transitions: []*domain.Transition{{On: "a"}}}
		tr, err := only.Transition(rc, "b")
		require.NoError(t, err)
		assert.Nil(t, tr)
	})

	t.Run("Criteria", func(t *testing.T) {
		cond, err := expression.CompileCondition("flowScope.ready == true")
		require.NoError(t, err)
		tr := &domain.Transition{Criteria: &domain.ConditionCriteria{Condition: cond}}

		ok, err := tr.Matches(rc, "anything")
		require.NoError(t, err)
		assert.False(t, ok)

		rc.FlowScope().Put("ready", true)
		ok, err = tr.Matches(rc, "anything")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestTargetResolvers(t *testing.T) {
	rc := testutils.NewRequestContext(nil)

	id, err := domain.LiteralTarget("mockState").Resolve(rc)
	require.NoError(t, err)
	assert.Equal(t, "mockState", id)

	id, err = (&domain.ExpressionTarget{Expression: expression.NewStatic("mockState")}).Resolve(rc)
	require.NoError(t, err)
	assert.Equal(t, "mockState", id)

	id, err = (&domain.ExpressionTarget{Expression: expression.NewStatic(nil)}).Resolve(rc)
	require.NoError(t, err)
	assert.Empty(t, id, "a nil result means no target")

	id, err = (&domain.Transition{}).TargetID(rc)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestIsPass(t *testing.T) {
	for _, id := range []string{"success", "yes", "true", "TRUE"} {
		assert.True(t, domain.IsPass(domain.NewEvent("a", id)), id)
	}
	assert.True(t, domain.IsPass(nil))
	for _, id := range []string{"whatever", "error", "no"} {
		assert.False(t, domain.IsPass(domain.NewEvent("a", id)), id)
	}
}

func TestFlow_States(t *testing.T) {
	view := domain.ViewFunc(func(domain.RequestContext) (*domain.Rendering, error) { return &domain.Rendering{}, nil })
	f := domain.NewFlow("booking")
	require.NoError(t, f.AddState(&domain.State{ID: "enter", Kind: domain.KindView, View: view,
		Transitions: []*domain.Transition{{On: "next", Target: domain.LiteralTarget("done")}}}))
	require.NoError(t, f.AddState(&domain.State{ID: "done", Kind: domain.KindEnd}))

	assert.Equal(t, "enter", f.StartStateID)
	assert.Equal(t, []string{"enter", "done"}, f.StateIDs())
	assert.NoError(t, f.Validate(nil))

	assert.Error(t, f.AddState(&domain.State{ID: "done", Kind: domain.KindEnd}), "duplicate id")
	assert.Error(t, f.AddState(&domain.State{ID: "odd", Kind: "weird"}), "unknown kind")

	_, err := f.State("missing")
	var noState *domain.NoSuchStateError
	assert.ErrorAs(t, err, &noState)

	broken := domain.NewFlow("broken")
	require.NoError(t, broken.AddState(&domain.State{ID: "a", Kind: domain.KindView, View: view,
		Transitions: []*domain.Transition{{On: "x", Target: domain.LiteralTarget("nowhere")}}}))
	assert.Error(t, broken.Validate(nil))

	sub := domain.NewFlow("parent")
	require.NoError(t, sub.AddState(&domain.State{ID: "call", Kind: domain.KindSubflow, Subflow: "child"}))
	assert.Error(t, sub.Validate(func(string) bool { return false }))
	assert.NoError(t, sub.Validate(func(id string) bool { return id == "child" }))
}

func TestExceptionHandlers(t *testing.T) {
	noMatch := &domain.NoMatchingTransitionError{FlowID: "f", StateID: "s", EventID: "e"}
	wrapped := fmt.Errorf("outer: %w", noMatch)

	assert.True(t, domain.MatchErrorType("NoMatchingTransitionError")(wrapped))
	assert.True(t, domain.MatchErrorType("domain.NoMatchingTransitionError")(wrapped))
	assert.True(t, domain.MatchErrorType("*")(errors.New("x")))
	assert.False(t, domain.MatchErrorType("NoSuchStateError")(wrapped))

	sentinel := errors.New("sentinel")
	assert.True(t, domain.MatchError(sentinel)(fmt.Errorf("wrap: %w", sentinel)))

	rc := testutils.NewRequestContext(nil)
	h := &domain.TransitionExceptionHandler{
		Match:  domain.MatchErrorType("NoMatchingTransitionError"),
		Target: domain.LiteralTarget("error"),
	}
	require.True(t, h.CanHandle(wrapped))
	target, err := h.Handle(rc, wrapped)
	require.NoError(t, err)
	assert.Equal(t, "error", target)
	assert.Equal(t, wrapped.Error(), rc.FlashScope().Get(domain.FlashKeyException))
	assert.Equal(t, noMatch.Error(), rc.FlashScope().Get(domain.FlashKeyRootCause))
}

func TestExecution_SnapshotRelinksConversation(t *testing.T) {
	exec := domain.NewExecution("k1", "parent")
	root := exec.Spawn(domain.NewFlow("parent"))
	root.StateID = "call"
	exec.Spawn(domain.NewFlow("child")).StateID = "form"
	exec.Conversation.Put("user", "ada")
	root.FlowScope().Put("count", 2)

	data, err := json.Marshal(exec)
	require.NoError(t, err)

	var restored domain.Execution
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.True(t, restored.Restored())
	require.Equal(t, 2, restored.Depth())
	assert.Equal(t, "child", restored.ActiveSession().FlowID)
	assert.Equal(t, "parent", restored.Parent().FlowID)
	assert.Same(t, restored.Conversation, restored.Stack[0].ConversationScope())
	assert.Same(t, restored.Conversation, restored.Stack[1].ConversationScope())
	assert.Equal(t, "ada", restored.Conversation.Get("user"))
	assert.Equal(t, 2.0, restored.Stack[0].FlowScope().Get("count"))
	assert.Nil(t, restored.ActiveSession().Flow(), "flow definitions are linked by the engine")
}

func TestExecution_CloneKeepsTypedNumbers(t *testing.T) {
	exec := domain.NewExecution("k1", "f")
	exec.Spawn(domain.NewFlow("f")).FlowScope().Put("attempts", 3)

	clone, err := exec.Clone()
	require.NoError(t, err)
	scope := clone.ActiveSession().FlowScope()

	n, err := scope.RequiredInt("attempts")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	generic, err := attr.Get[int](scope, "attempts")
	require.NoError(t, err)
	assert.Equal(t, 3, generic)
}

func TestExecution_PopEnds(t *testing.T) {
	exec := domain.NewExecution("k1", "f")
	exec.Spawn(domain.NewFlow("f"))
	require.True(t, exec.IsActive())

	exec.Pop(&domain.Outcome{ID: "finish", Output: attr.Of("a", 1)})
	assert.True(t, exec.HasEnded())
	assert.Equal(t, "finish", exec.Outcome.ID)
	assert.Nil(t, exec.Pop(nil))
}

func TestEnvAndAssign(t *testing.T) {
	rc := testutils.NewRequestContext(nil).WithEvent("submit", attr.Of("q", "x"))
	rc.ConversationScope().Put("shared", "conv")
	rc.FlowScope().Put("shared", "flow")
	rc.FlowScope().Put("count", 1)
	rc.RequestScope().Put("tmp", true)

	env := rc.Env()
	assert.Equal(t, "flow", env["shared"], "flow scope shadows conversation scope")
	assert.Equal(t, true, env["tmp"])
	assert.Equal(t, "mock-1", env[domain.EnvExecutionKey])
	assert.Equal(t, "submit", env[domain.EnvCurrentEvent].(map[string]any)["id"])

	require.NoError(t, rc.Assign("tmp", false))
	assert.Equal(t, false, rc.RequestScope().Get("tmp"))
	require.NoError(t, rc.Assign("fresh", "v"))
	assert.Equal(t, "v", rc.FlowScope().Get("fresh"))

	v, err := expression.MustPath("requestParameters.q").Evaluate(rc)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	require.NoError(t, expression.MustPath("count").Set(rc, 5))
	assert.Equal(t, 5, rc.FlowScope().Get("count"))
}

func TestActions(t *testing.T) {
	rc := testutils.NewRequestContext(nil)
	rc.FlowScope().Put("count", 2)

	cond, err := expression.Compile("flowScope.count > 1")
	require.NoError(t, err)
	ev, err := (&domain.EvaluateAction{Expression: cond, Result: expression.MustPath("flowScope.big")}).Execute(rc)
	require.NoError(t, err)
	assert.Equal(t, domain.EventYes, ev.ID)
	assert.Equal(t, true, rc.FlowScope().Get("big"))

	sum, err := expression.Compile("flowScope.count + 1")
	require.NoError(t, err)
	ev, err = (&domain.SetAction{Name: expression.MustPath("flowScope.count"), Value: sum}).Execute(rc)
	require.NoError(t, err)
	assert.Equal(t, domain.EventSuccess, ev.ID)
	assert.Equal(t, 3, rc.FlowScope().Get("count"))

	named := &domain.NamedAction{Name: "fail", Action: domain.ActionFunc(func(domain.RequestContext) (*domain.Event, error) {
		return nil, errors.New("nope")
	})}
	_, err = named.Execute(rc)
	assert.EqualError(t, err, "action 'fail': nope")
}

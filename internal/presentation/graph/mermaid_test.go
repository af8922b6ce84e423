package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkout = `
id: checkout
global-transitions:
  - on: cancel
    to: cancelled
  - on-exception: MappingError
    to: cancelled
states:
  - id: cart
    type: view
    transitions:
      - on: next
        to: check-stock
      - on: refresh
  - id: check-stock
    type: decision
    test: flowScope.Get("inStock") == true
    then: pay
    else: cart
  - id: pay
    type: subflow
    subflow: payment
    transitions:
      - on: paid
        to: receipt
      - on: retry
        to: "${flowScope.Get('retry')}"
  - id: receipt
    type: action
    actions:
      - call: mailer
    transitions:
      - on: success
        to: done
  - id: done
    type: end
    view: thanks
  - id: cancelled
    type: end
`

func parse(t *testing.T) *model.FlowModel {
	t.Helper()
	m, err := model.Parse([]byte(checkout))
	require.NoError(t, err)
	return m
}

func TestGenerateMermaid(t *testing.T) {
	got := graph.GenerateMermaid(parse(t), nil)

	for _, want := range []string{
		"graph TD\n",
		`__start(("checkout")) --> cart`,
		`cart[/"cart"/]`,
		`check_stock{"check-stock"}`,
		`check_stock -- "flowScope.Get('inStock') == true" --> pay`,
		`check_stock -- "else" --> cart`,
		`pay[["pay <br/> ↳ payment"]]`,
		`receipt{{"receipt"}}`,
		`done(["done <br/> 🖵 thanks"])`,
		`cancelled(["cancelled"])`,
		`cart -- "next" --> check_stock`,
		`__global{{"any state"}}`,
		`__global -- "cancel" --> cancelled`,
		`__global -. "⚡ MappingError" .-> cancelled`,
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "refresh", "transitions without a target have no edge")
	assert.NotContains(t, got, "retry", "expression targets have no static edge")
	assert.NotContains(t, got, "classDef")
}

func TestGenerateMermaid_StartState(t *testing.T) {
	m := parse(t)
	m.StartState = "pay"
	assert.Contains(t, graph.GenerateMermaid(m, nil), `__start(("checkout")) --> pay`)
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	exec := domain.NewExecution("k1", "checkout")
	exec.History = []string{"checkout:cart", "checkout:check-stock", "checkout:cart", "payment:card", "checkout:pay"}
	exec.Stack = []*domain.Session{
		{FlowID: "checkout", StateID: "pay"},
		{FlowID: "payment", StateID: "card"},
	}

	overlay := graph.OverlayFor(exec, "checkout")
	assert.Equal(t, []string{"cart", "check-stock", "cart", "pay"}, overlay.VisitedStates)
	assert.Empty(t, overlay.CurrentState, "the active session runs another flow")

	exec.Stack = exec.Stack[:1]
	overlay = graph.OverlayFor(exec, "checkout")
	assert.Equal(t, "pay", overlay.CurrentState)

	got := graph.GenerateMermaid(parse(t), overlay)
	assert.Contains(t, got, "classDef visited")
	assert.Contains(t, got, "class cart visited;")
	assert.Contains(t, got, "class check_stock visited;")
	assert.Contains(t, got, "class pay current;")
	assert.Equal(t, 1, strings.Count(got, "class cart visited;"))
}

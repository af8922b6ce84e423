package domain

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/expression"
	"github.com/aretw0/arbor/pkg/mapping"
)

// FlashKeyMappingResults holds the mapping results of a failed transition bind.
const FlashKeyMappingResults = "mappingResults"

// Transition moves a session from one state to another in response to an event.
type Transition struct {
	// On is the event id this transition matches, or WildcardEvent.
	On string `json:"on,omitempty"`

	// Criteria, when set, replaces the On match.
	Criteria TransitionCriteria `json:"-"`

	// Target resolves the next state. A nil Target, or one resolving to the
	// empty string, fires the transition without navigating.
	Target TargetResolver `json:"-"`

	// Actions run in order before navigation. An error aborts the transition;
	// a result that is not a pass vetoes it.
	Actions []Action `json:"-"`

	// Bind maps request parameters into the request context before the actions run.
	Bind mapping.Mapper `json:"-"`

	Attributes *attr.Map `json:"attributes,omitempty"`
}

// Matches reports whether the transition applies to eventID.
func (t *Transition) Matches(rc RequestContext, eventID string) (bool, error) {
	if t.Criteria != nil {
		return t.Criteria.Test(rc)
	}
	return t.On == WildcardEvent || t.On == eventID, nil
}

// TargetID resolves the target state id; the empty string means no navigation.
func (t *Transition) TargetID(rc RequestContext) (string, error) {
	if t.Target == nil {
		return "", nil
	}
	return t.Target.Resolve(rc)
}

func (t *Transition) String() string {
	target := "-"
	if t.Target != nil {
		target = fmt.Sprint(t.Target)
	}
	on := t.On
	if t.Criteria != nil {
		on = fmt.Sprint(t.Criteria)
	}
	return fmt.Sprintf("[on=%s to=%s]", on, target)
}

// TransitionCriteria decides whether a transition matches the current request.
type TransitionCriteria interface {
	Test(rc RequestContext) (bool, error)
}

// ConditionCriteria matches when a boolean expression holds.
type ConditionCriteria struct {
	Condition expression.Condition
}

func (c *ConditionCriteria) Test(rc RequestContext) (bool, error) {
	return c.Condition.Test(rc)
}

func (c *ConditionCriteria) String() string { return c.Condition.String() }

// TargetResolver resolves the id of a transition's target state.
type TargetResolver interface {
	Resolve(rc RequestContext) (string, error)
}

// LiteralTarget always resolves to itself.
type LiteralTarget string

func (t LiteralTarget) Resolve(RequestContext) (string, error) { return string(t), nil }

func (t LiteralTarget) String() string { return string(t) }

// ExpressionTarget evaluates an expression to a state id. A nil result means no target.
type ExpressionTarget struct {
	Expression expression.Expression
}

func (t *ExpressionTarget) Resolve(rc RequestContext) (string, error) {
	v, err := t.Expression.Evaluate(rc)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return fmt.Sprint(v), nil
}

func (t *ExpressionTarget) String() string { return t.Expression.String() }

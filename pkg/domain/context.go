package domain

import (
	"context"

	"github.com/aretw0/arbor/pkg/attr"
)

// ExternalContext is the inbound request as seen by the engine.
type ExternalContext interface {
	Context() context.Context
	// EventID is the event the caller signals, empty when launching or refreshing.
	EventID() string
	// Parameters holds request parameters. Values are string or []string.
	Parameters() *attr.Map
}

// RequestContext is the view of one request an Action, View or expression
// receives. Implementations are not safe for concurrent use.
type RequestContext interface {
	Context() context.Context
	External() ExternalContext
	Execution() *Execution
	ActiveSession() *Session
	ActiveFlow() *Flow
	CurrentState() *State
	CurrentEvent() *Event
	CurrentTransition() *Transition

	RequestScope() *attr.Map
	FlashScope() *attr.Map
	FlowScope() *attr.Map
	ConversationScope() *attr.Map
	RequestParameters() *attr.Map

	// Env exposes scopes and parameters by name for expression evaluation.
	Env() map[string]any
	// Assign writes a bare name from an expression into a scope.
	Assign(name string, value any) error
}

// External is a plain ExternalContext.
type External struct {
	ctx    context.Context
	event  string
	params *attr.Map
}

// NewExternal creates an ExternalContext. A nil params map is replaced by an empty one.
func NewExternal(ctx context.Context, eventID string, params *attr.Map) *External {
	if ctx == nil {
		ctx = context.Background()
	}
	if params == nil {
		params = attr.New()
	}
	return &External{ctx: ctx, event: eventID, params: params}
}

func (e *External) Context() context.Context { return e.ctx }
func (e *External) EventID() string          { return e.event }
func (e *External) Parameters() *attr.Map    { return e.params }

// Names under which Env exposes scopes and request data.
const (
	EnvRequestScope      = "requestScope"
	EnvFlashScope        = "flashScope"
	EnvFlowScope         = "flowScope"
	EnvConversationScope = "conversationScope"
	EnvRequestParameters = "requestParameters"
	EnvCurrentEvent      = "currentEvent"
	EnvExecutionKey      = "flowExecutionKey"
)

// Env builds the expression environment of rc. Scope attributes are also
// exposed as bare names, the narrowest scope winning: request, flash, flow,
// then conversation. The reserved names above take precedence over both.
func Env(rc RequestContext) map[string]any {
	env := make(map[string]any)
	for _, scope := range []*attr.Map{rc.ConversationScope(), rc.FlowScope(), rc.FlashScope(), rc.RequestScope()} {
		scope.Range(func(k string, v any) bool {
			env[k] = v
			return true
		})
	}

	env[EnvRequestScope] = rc.RequestScope()
	env[EnvFlashScope] = rc.FlashScope()
	env[EnvFlowScope] = rc.FlowScope()
	env[EnvConversationScope] = rc.ConversationScope()
	env[EnvRequestParameters] = rc.RequestParameters()
	if ev := rc.CurrentEvent(); ev != nil {
		env[EnvCurrentEvent] = map[string]any{"id": ev.ID, "source": ev.Source, "attributes": ev.Attributes.AsMap()}
	}
	if exec := rc.Execution(); exec != nil {
		env[EnvExecutionKey] = exec.Key
	}
	return env
}

// Assign writes a bare name into the narrowest scope that already holds it,
// or into flow scope.
func Assign(rc RequestContext, name string, value any) error {
	for _, scope := range []*attr.Map{rc.RequestScope(), rc.FlashScope(), rc.FlowScope(), rc.ConversationScope()} {
		if scope.Contains(name) {
			scope.Put(name, value)
			return nil
		}
	}
	flow := rc.FlowScope()
	if flow == nil {
		return ErrNoActiveSession
	}
	flow.Put(name, value)
	return nil
}

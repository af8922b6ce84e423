package testutils

import (
	"context"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
)

// RequestContext is a settable domain.RequestContext for unit tests of
// actions, variables and views outside the engine.
type RequestContext struct {
	Ctx        context.Context
	Ext        domain.ExternalContext
	Exec       *domain.Execution
	State      *domain.State
	Event      *domain.Event
	Transition *domain.Transition
}

// NewRequestContext returns a context with an active session of flow. A nil
// flow gets an empty flow with id "mockFlow".
func NewRequestContext(flow *domain.Flow) *RequestContext {
	if flow == nil {
		flow = domain.NewFlow("mockFlow")
	}
	exec := domain.NewExecution("mock-1", flow.ID)
	s := exec.Spawn(flow)
	s.Status = domain.SessionActive
	return &RequestContext{
		Ctx:  context.Background(),
		Ext:  domain.NewExternal(context.Background(), "", attr.New()),
		Exec: exec,
	}
}

// WithEvent sets the external event and parameters.
func (c *RequestContext) WithEvent(eventID string, params *attr.Map) *RequestContext {
	c.Ext = domain.NewExternal(c.Ctx, eventID, params)
	c.Event = domain.NewEvent("external", eventID)
	return c
}

func (c *RequestContext) Context() context.Context              { return c.Ctx }
func (c *RequestContext) External() domain.ExternalContext      { return c.Ext }
func (c *RequestContext) Execution() *domain.Execution          { return c.Exec }
func (c *RequestContext) ActiveSession() *domain.Session        { return c.Exec.ActiveSession() }
func (c *RequestContext) CurrentState() *domain.State           { return c.State }
func (c *RequestContext) CurrentEvent() *domain.Event           { return c.Event }
func (c *RequestContext) CurrentTransition() *domain.Transition { return c.Transition }
func (c *RequestContext) RequestParameters() *attr.Map          { return c.Ext.Parameters() }

func (c *RequestContext) ActiveFlow() *domain.Flow {
	if s := c.ActiveSession(); s != nil {
		return s.Flow()
	}
	return nil
}

func (c *RequestContext) RequestScope() *attr.Map {
	if s := c.ActiveSession(); s != nil {
		return s.RequestScope()
	}
	return nil
}

func (c *RequestContext) FlashScope() *attr.Map {
	if s := c.ActiveSession(); s != nil {
		return s.FlashScope()
	}
	return nil
}

func (c *RequestContext) FlowScope() *attr.Map {
	if s := c.ActiveSession(); s != nil {
		return s.FlowScope()
	}
	return nil
}

func (c *RequestContext) ConversationScope() *attr.Map { return c.Exec.Conversation }

func (c *RequestContext) Env() map[string]any { return domain.Env(c) }

func (c *RequestContext) Assign(name string, value any) error { return domain.Assign(c, name, value) }

package runtime

import (
	"context"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
)

// requestContext is the domain.RequestContext of one request. It tracks the
// state, event and transition being processed plus what the request produced.
type requestContext struct {
	ctx  context.Context
	ext  domain.ExternalContext
	exec *domain.Execution

	// session pins the context to a session other than the active one.
	session *domain.Session

	state      *domain.State
	event      *domain.Event
	transition *domain.Transition

	rendering *domain.Rendering
	paused    bool
	steps     int
}

func (e *Engine) newRequestContext(ctx context.Context, exec *domain.Execution, ext domain.ExternalContext) *requestContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if ext == nil {
		ext = domain.NewExternal(ctx, "", nil)
	}
	return &requestContext{ctx: ctx, ext: ext, exec: exec}
}

// forSession returns a copy bound to s, used to restore variables of
// sessions below the top of the stack.
func (rc *requestContext) forSession(s *domain.Session) *requestContext {
	c := *rc
	c.session = s
	return &c
}

func (rc *requestContext) Context() context.Context              { return rc.ctx }
func (rc *requestContext) External() domain.ExternalContext      { return rc.ext }
func (rc *requestContext) Execution() *domain.Execution          { return rc.exec }
func (rc *requestContext) CurrentState() *domain.State           { return rc.state }
func (rc *requestContext) CurrentEvent() *domain.Event           { return rc.event }
func (rc *requestContext) CurrentTransition() *domain.Transition { return rc.transition }
func (rc *requestContext) RequestParameters() *attr.Map          { return rc.ext.Parameters() }
func (rc *requestContext) Env() map[string]any                   { return domain.Env(rc) }

func (rc *requestContext) Assign(name string, value any) error {
	return domain.Assign(rc, name, value)
}

func (rc *requestContext) ActiveSession() *domain.Session {
	if rc.session != nil {
		return rc.session
	}
	return rc.exec.ActiveSession()
}

func (rc *requestContext) ActiveFlow() *domain.Flow {
	if s := rc.ActiveSession(); s != nil {
		return s.Flow()
	}
	return nil
}

func (rc *requestContext) RequestScope() *attr.Map {
	if s := rc.ActiveSession(); s != nil {
		return s.RequestScope()
	}
	return nil
}

func (rc *requestContext) FlashScope() *attr.Map {
	if s := rc.ActiveSession(); s != nil {
		return s.FlashScope()
	}
	return nil
}

func (rc *requestContext) FlowScope() *attr.Map {
	if s := rc.ActiveSession(); s != nil {
		return s.FlowScope()
	}
	return nil
}

func (rc *requestContext) ConversationScope() *attr.Map { return rc.exec.Conversation }

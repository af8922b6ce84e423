package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/message"
)

// render renders the view of st, clears flash scope and pauses the active session.
func (e *Engine) render(rc *requestContext, st *domain.State) error {
	if err := e.renderView(rc, st); err != nil {
		return err
	}
	rc.ActiveSession().Status = domain.SessionPaused
	rc.paused = true
	return e.listeners.paused(rc)
}

func (e *Engine) renderView(rc *requestContext, st *domain.State) error {
	if st.View == nil {
		return fmt.Errorf("state %s has no view", st)
	}
	if err := e.listeners.viewRendering(rc, st); err != nil {
		return err
	}
	msgs, _ := rc.FlashScope().Get(domain.FlashKeyMessages).(*message.Context)
	if msgs != nil && e.messages != nil {
		msgs.SetSource(e.messages)
	}
	r, err := st.View.Render(rc)
	if err != nil {
		return fmt.Errorf("render %s: %w", st, err)
	}
	if r == nil {
		r = &domain.Rendering{}
	}
	r.StateID = st.ID
	if msgs != nil {
		r.Messages = append(r.Messages, msgs.Messages()...)
	}
	rc.rendering = r
	rc.FlashScope().Clear()
	return e.listeners.viewRendered(rc, st, r)
}

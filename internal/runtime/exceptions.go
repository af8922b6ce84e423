package runtime

import (
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
)

// recover offers err to the exception handlers of the current state, then
// to those of the active flow. The first handler able to handle it decides
// where the session goes next. Unhandled failures are wrapped in a
// domain.FlowExecutionError. A failure raised while handling is not handled again.
func (e *Engine) recover(rc *requestContext, err error) error {
	if lerr := e.listeners.exceptionThrown(rc, err); lerr != nil {
		return e.fail(rc, errors.Join(err, lerr))
	}

	s := rc.ActiveSession()
	if s == nil || s.Flow() == nil {
		return e.fail(rc, err)
	}
	var handlers []domain.ExceptionHandler
	if rc.state != nil {
		handlers = append(handlers, rc.state.ExceptionHandlers...)
	}
	handlers = append(handlers, s.Flow().ExceptionHandlers...)

	for _, h := range handlers {
		if !h.CanHandle(err) {
			continue
		}
		e.logger.DebugContext(rc.ctx, "handling exception", "flow", s.FlowID, "state", s.StateID, "err", err)
		targetID, herr := h.Handle(rc, err)
		if herr != nil {
			return e.fail(rc, herr)
		}
		if herr = e.afterHandling(rc, targetID); herr != nil {
			return e.fail(rc, herr)
		}
		return nil
	}
	return e.fail(rc, err)
}

func (e *Engine) afterHandling(rc *requestContext, targetID string) error {
	if targetID != "" {
		target, err := rc.ActiveFlow().State(targetID)
		if err != nil {
			return err
		}
		return e.enter(rc, target)
	}
	if rc.state != nil && rc.state.Kind == domain.KindView {
		return e.render(rc, rc.state)
	}
	return nil
}

func (e *Engine) fail(rc *requestContext, err error) error {
	wrapped := e.wrap(rc, err)
	e.logger.ErrorContext(rc.ctx, "request failed", "key", rc.exec.Key, "err", err)
	return wrapped
}

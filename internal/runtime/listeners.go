package runtime

import (
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
)

// listeners fans a notification out to every listener, stopping at the first error.
type listeners []domain.Listener

func (ls listeners) each(fn func(domain.Listener) error) error {
	for _, l := range ls {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func (ls listeners) requestSubmitted(rc domain.RequestContext) error {
	return ls.each(func(l domain.Listener) error { return l.RequestSubmitted(rc) })
}

func (ls listeners) requestProcessed(rc domain.RequestContext) error {
	return ls.each(func(l domain.Listener) error { return l.RequestProcessed(rc) })
}

func (ls listeners) sessionCreating(rc domain.RequestContext, flow *domain.Flow) error {
	return ls.each(func(l domain.Listener) error { return l.SessionCreating(rc, flow) })
}

func (ls listeners) sessionStarting(rc domain.RequestContext, s *domain.Session, input *attr.Map) error {
	return ls.each(func(l domain.Listener) error { return l.SessionStarting(rc, s, input) })
}

func (ls listeners) sessionStarted(rc domain.RequestContext, s *domain.Session) error {
	return ls.each(func(l domain.Listener) error { return l.SessionStarted(rc, s) })
}

func (ls listeners) eventSignaled(rc domain.RequestContext, ev *domain.Event) error {
	return ls.each(func(l domain.Listener) error { return l.EventSignaled(rc, ev) })
}

func (ls listeners) transitionExecuting(rc domain.RequestContext, t *domain.Transition) error {
	return ls.each(func(l domain.Listener) error { return l.TransitionExecuting(rc, t) })
}

func (ls listeners) stateEntering(rc domain.RequestContext, st *domain.State) error {
	return ls.each(func(l domain.Listener) error { return l.StateEntering(rc, st) })
}

func (ls listeners) stateEntered(rc domain.RequestContext, previous, st *domain.State) error {
	return ls.each(func(l domain.Listener) error { return l.StateEntered(rc, previous, st) })
}

func (ls listeners) viewRendering(rc domain.RequestContext, st *domain.State) error {
	return ls.each(func(l domain.Listener) error { return l.ViewRendering(rc, st) })
}

func (ls listeners) viewRendered(rc domain.RequestContext, st *domain.State, r *domain.Rendering) error {
	return ls.each(func(l domain.Listener) error { return l.ViewRendered(rc, st, r) })
}

func (ls listeners) paused(rc domain.RequestContext) error {
	return ls.each(func(l domain.Listener) error { return l.Paused(rc) })
}

func (ls listeners) resuming(rc domain.RequestContext) error {
	return ls.each(func(l domain.Listener) error { return l.Resuming(rc) })
}

func (ls listeners) sessionEnding(rc domain.RequestContext, s *domain.Session, output *attr.Map) error {
	return ls.each(func(l domain.Listener) error { return l.SessionEnding(rc, s, output) })
}

func (ls listeners) sessionEnded(rc domain.RequestContext, s *domain.Session, outcome *domain.Outcome) error {
	return ls.each(func(l domain.Listener) error { return l.SessionEnded(rc, s, outcome) })
}

// exceptionThrown notifies every listener of err and returns the first
// error a listener reported.
func (ls listeners) exceptionThrown(rc domain.RequestContext, err error) error {
	var first error
	for _, l := range ls {
		if lerr := l.ExceptionThrown(rc, err); lerr != nil && first == nil {
			first = lerr
		}
	}
	return first
}

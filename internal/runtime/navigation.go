package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// signal delivers ev to the current state of the active session and
// executes the matching transition. Global transitions are consulted when
// the state has none.
func (e *Engine) signal(rc *requestContext, ev *domain.Event) error {
	rc.event = ev
	if err := e.listeners.eventSignaled(rc, ev); err != nil {
		return err
	}
	st := rc.state
	t, err := e.match(rc, st, ev.ID)
	if err != nil {
		return err
	}
	if t == nil {
		return &domain.NoMatchingTransitionError{FlowID: rc.ActiveFlow().ID, StateID: st.ID, EventID: ev.ID}
	}
	return e.execute(rc, st, t)
}

func (e *Engine) match(rc *requestContext, st *domain.State, eventID string) (*domain.Transition, error) {
	if st.Kind.Transitionable() {
		t, err := st.Transition(rc, eventID)
		if err != nil || t != nil {
			return t, err
		}
	}
	return rc.ActiveFlow().GlobalTransition(rc, eventID)
}

// execute runs t from source: bind, actions, then navigation. A failed bind
// or a vetoed action leaves a view state in place and renders it again.
func (e *Engine) execute(rc *requestContext, source *domain.State, t *domain.Transition) error {
	rc.transition = t
	if err := e.listeners.transitionExecuting(rc, t); err != nil {
		return err
	}

	if t.Bind != nil {
		results := t.Bind.Map(rc.RequestParameters(), rc)
		if results.HasErrorResults() {
			e.logger.DebugContext(rc.ctx, "transition bind failed", "state", source.ID, "errors", len(results.ErrorResults()))
			rc.FlashScope().Put(domain.FlashKeyMappingResults, results)
			domain.Messages(rc).AddResults(results)
			return e.stay(rc, source, &MappingError{Phase: PhaseBind, Results: results})
		}
	}

	for _, a := range t.Actions {
		ev, err := a.Execute(rc)
		if err != nil {
			return err
		}
		if !domain.IsPass(ev) {
			e.logger.DebugContext(rc.ctx, "transition vetoed", "state", source.ID, "transition", t.String(), "result", ev.ID)
			return e.stay(rc, source, &TransitionVetoedError{StateID: source.ID, Transition: t.String(), Result: ev.ID})
		}
	}

	targetID, err := t.TargetID(rc)
	if err != nil {
		return err
	}
	if targetID == "" {
		return e.stay(rc, source, &TransitionVetoedError{StateID: source.ID, Transition: t.String()})
	}
	target, err := rc.ActiveFlow().State(targetID)
	if err != nil {
		return err
	}

	if err := e.runActions(rc, source.ExitActions); err != nil {
		return err
	}
	return e.enter(rc, target)
}

// stay re-renders a view state that was not left. Other states cannot wait
// for input, so cause is returned instead.
func (e *Engine) stay(rc *requestContext, st *domain.State, cause error) error {
	if st.Kind != domain.KindView {
		return cause
	}
	return e.render(rc, st)
}

// enter makes st the current state of the active session and runs its behavior.
func (e *Engine) enter(rc *requestContext, st *domain.State) error {
	if err := e.step(rc); err != nil {
		return err
	}
	if err := e.listeners.stateEntering(rc, st); err != nil {
		return err
	}
	s := rc.ActiveSession()
	previous := rc.state
	s.StateID = st.ID
	rc.state = st
	rc.exec.History = append(rc.exec.History, s.FlowID+":"+st.ID)
	e.logger.DebugContext(rc.ctx, "entering state", "flow", s.FlowID, "state", st.ID, "kind", st.Kind)

	if err := e.runActions(rc, st.EntryActions); err != nil {
		return err
	}
	if err := e.listeners.stateEntered(rc, previous, st); err != nil {
		return err
	}

	switch st.Kind {
	case domain.KindView:
		return e.render(rc, st)
	case domain.KindAction:
		return e.act(rc, st)
	case domain.KindDecision:
		return e.decide(rc, st)
	case domain.KindSubflow:
		return e.spawn(rc, st)
	case domain.KindEnd:
		return e.endSession(rc, st)
	}
	return fmt.Errorf("state %s has unknown kind", st)
}

// act executes the actions of an action state in order. The first result
// event with a matching transition is signaled; the remaining actions are skipped.
func (e *Engine) act(rc *requestContext, st *domain.State) error {
	var last *domain.Event
	for _, a := range st.Actions {
		ev, err := a.Execute(rc)
		if err != nil {
			return err
		}
		if ev == nil {
			ev = domain.Success(st.ID)
		}
		last = ev
		t, err := e.match(rc, st, ev.ID)
		if err != nil {
			return err
		}
		if t != nil {
			rc.event = ev
			if err := e.listeners.eventSignaled(rc, ev); err != nil {
				return err
			}
			return e.execute(rc, st, t)
		}
	}
	if last == nil {
		last = domain.Success(st.ID)
		return e.signal(rc, last)
	}
	return &domain.NoMatchingTransitionError{FlowID: rc.ActiveFlow().ID, StateID: st.ID, EventID: last.ID}
}

// decide evaluates the test of a decision state and moves to Then or Else.
func (e *Engine) decide(rc *requestContext, st *domain.State) error {
	ok, err := st.Test.Test(rc)
	if err != nil {
		return err
	}
	targetID, eventID := st.Then, domain.EventYes
	if !ok {
		targetID, eventID = st.Else, domain.EventNo
	}
	if targetID == "" {
		return &domain.NoMatchingTransitionError{FlowID: rc.ActiveFlow().ID, StateID: st.ID, EventID: eventID}
	}
	rc.event = domain.Result(st.ID, ok)
	return e.execute(rc, st, &domain.Transition{On: eventID, Target: domain.LiteralTarget(targetID)})
}

func (e *Engine) runActions(rc *requestContext, actions []domain.Action) error {
	for _, a := range actions {
		if _, err := a.Execute(rc); err != nil {
			return err
		}
	}
	return nil
}

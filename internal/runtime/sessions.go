package runtime

import (
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
)

// startSession pushes a session for flow, creates its variables, maps input
// into it, runs its start actions and enters its start state.
func (e *Engine) startSession(rc *requestContext, flow *domain.Flow, input *attr.Map) error {
	if err := e.listeners.sessionCreating(rc, flow); err != nil {
		return err
	}
	s := rc.exec.Spawn(flow)
	s.Status = domain.SessionStarting
	rc.state = nil
	e.logger.DebugContext(rc.ctx, "session starting", "key", rc.exec.Key, "flow", flow.ID, "depth", rc.exec.Depth())

	if err := e.listeners.sessionStarting(rc, s, input); err != nil {
		return err
	}
	for _, v := range flow.Variables {
		if err := v.Create(rc); err != nil {
			return err
		}
	}
	if err := e.mapInput(rc, flow, input); err != nil {
		return err
	}
	if err := e.runActions(rc, flow.StartActions); err != nil {
		return err
	}

	start, err := flow.StartState()
	if err != nil {
		return err
	}
	s.Status = domain.SessionActive
	if err := e.enter(rc, start); err != nil {
		return err
	}
	return e.listeners.sessionStarted(rc, s)
}

// mapInput applies the flow input mapper. Without one, input attributes are
// copied into flow scope as they are.
func (e *Engine) mapInput(rc *requestContext, flow *domain.Flow, input *attr.Map) error {
	if input == nil {
		input = attr.New()
	}
	if flow.InputMapper == nil {
		rc.FlowScope().PutAll(input)
		return nil
	}
	if results := flow.InputMapper.Map(input, rc); results.HasErrorResults() {
		return &MappingError{Phase: PhaseInput, Results: results}
	}
	return nil
}

// spawn starts the subflow of a subflow state as a child session.
func (e *Engine) spawn(rc *requestContext, st *domain.State) error {
	sub, err := e.flows.Lookup(st.Subflow)
	if err != nil {
		return err
	}
	input := attr.New()
	if st.SubflowInput != nil {
		if results := st.SubflowInput.Map(rc, input); results.HasErrorResults() {
			return &MappingError{Phase: PhaseSubflowInput, Results: results}
		}
	}
	rc.ActiveSession().Status = domain.SessionSuspended
	return e.startSession(rc, sub, input)
}

// endSession ends the active session on end state st. When a parent session
// remains, the outcome is signaled to it as an event.
func (e *Engine) endSession(rc *requestContext, st *domain.State) error {
	s := rc.ActiveSession()
	flow := s.Flow()
	s.Status = domain.SessionEnding

	output := attr.New()
	if st.Output != nil {
		if results := st.Output.Map(rc, output); results.HasErrorResults() {
			return &MappingError{Phase: PhaseOutput, Results: results}
		}
	}
	if flow.OutputMapper != nil {
		if results := flow.OutputMapper.Map(rc, output); results.HasErrorResults() {
			return &MappingError{Phase: PhaseOutput, Results: results}
		}
	}
	if err := e.listeners.sessionEnding(rc, s, output); err != nil {
		return err
	}
	if err := e.runActions(rc, flow.EndActions); err != nil {
		return err
	}
	if st.View != nil && rc.exec.Depth() == 1 {
		if err := e.renderView(rc, st); err != nil {
			return err
		}
	}
	for _, v := range flow.Variables {
		v.Destroy(rc)
	}

	outcome := &domain.Outcome{ID: st.ID, Output: output}
	rc.exec.Pop(outcome)
	s.Status = domain.SessionEnded
	e.logger.DebugContext(rc.ctx, "session ended", "key", rc.exec.Key, "flow", flow.ID, "outcome", outcome.ID)
	if err := e.listeners.sessionEnded(rc, s, outcome); err != nil {
		return err
	}

	parent := rc.exec.ActiveSession()
	if parent == nil {
		return nil
	}
	return e.resumeParent(rc, parent, flow, outcome)
}

// resumeParent maps a subflow outcome into the parent and signals it as an event.
func (e *Engine) resumeParent(rc *requestContext, parent *domain.Session, sub *domain.Flow, outcome *domain.Outcome) error {
	parent.Status = domain.SessionActive
	st, err := parent.State()
	if err != nil {
		return err
	}
	rc.state = st
	if st.SubflowOutput != nil {
		if results := st.SubflowOutput.Map(outcome.Output, rc); results.HasErrorResults() {
			return &MappingError{Phase: PhaseSubflowOutput, Results: results}
		}
	}
	ev := domain.NewEvent(sub.ID, outcome.ID)
	ev.Attributes = outcome.Output.Clone()
	return e.signal(rc, ev)
}

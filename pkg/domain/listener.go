package domain

import (
	"github.com/aretw0/arbor/pkg/attr"
)

// Listener observes the lifecycle of requests against an execution. Every
// method may return an error, which the engine treats like an action failure.
// Embed NopListener to implement only the points of interest.
type Listener interface {
	// RequestSubmitted is called when a request enters the engine.
	RequestSubmitted(rc RequestContext) error
	// RequestProcessed is called when a request leaves the engine, even on failure.
	RequestProcessed(rc RequestContext) error
	// SessionCreating is called before a session for flow is pushed.
	SessionCreating(rc RequestContext, flow *Flow) error
	// SessionStarting is called after the session is pushed and before its start state is entered.
	SessionStarting(rc RequestContext, s *Session, input *attr.Map) error
	// SessionStarted is called once the start state has been entered.
	SessionStarted(rc RequestContext, s *Session) error
	// EventSignaled is called when an event is signaled against the active session.
	EventSignaled(rc RequestContext, ev *Event) error
	// TransitionExecuting is called before a matched transition runs.
	TransitionExecuting(rc RequestContext, t *Transition) error
	// StateEntering is called before a state is entered.
	StateEntering(rc RequestContext, st *State) error
	// StateEntered is called after a state is entered. previous may be nil.
	StateEntered(rc RequestContext, previous, st *State) error
	// ViewRendering is called before a view state renders.
	ViewRendering(rc RequestContext, st *State) error
	// ViewRendered is called after a view state renders.
	ViewRendered(rc RequestContext, st *State, r *Rendering) error
	// Paused is called when the execution pauses waiting for the next request.
	Paused(rc RequestContext) error
	// Resuming is called when a paused execution resumes.
	Resuming(rc RequestContext) error
	// SessionEnding is called before a session is popped.
	SessionEnding(rc RequestContext, s *Session, output *attr.Map) error
	// SessionEnded is called after a session was popped.
	SessionEnded(rc RequestContext, s *Session, outcome *Outcome) error
	// ExceptionThrown is called when processing fails.
	ExceptionThrown(rc RequestContext, err error) error
}

// NopListener implements Listener with no-ops.
type NopListener struct{}

func (NopListener) RequestSubmitted(RequestContext) error                     { return nil }
func (NopListener) RequestProcessed(RequestContext) error                     { return nil }
func (NopListener) SessionCreating(RequestContext, *Flow) error               { return nil }
func (NopListener) SessionStarting(RequestContext, *Session, *attr.Map) error { return nil }
func (NopListener) SessionStarted(RequestContext, *Session) error             { return nil }
func (NopListener) EventSignaled(RequestContext, *Event) error                { return nil }
func (NopListener) TransitionExecuting(RequestContext, *Transition) error     { return nil }
func (NopListener) StateEntering(RequestContext, *State) error                { return nil }
func (NopListener) StateEntered(RequestContext, *State, *State) error         { return nil }
func (NopListener) ViewRendering(RequestContext, *State) error                { return nil }
func (NopListener) ViewRendered(RequestContext, *State, *Rendering) error     { return nil }
func (NopListener) Paused(RequestContext) error                               { return nil }
func (NopListener) Resuming(RequestContext) error                             { return nil }
func (NopListener) SessionEnding(RequestContext, *Session, *attr.Map) error   { return nil }
func (NopListener) SessionEnded(RequestContext, *Session, *Outcome) error     { return nil }
func (NopListener) ExceptionThrown(RequestContext, error) error               { return nil }

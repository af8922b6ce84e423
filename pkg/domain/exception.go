package domain

import (
	"errors"
	"reflect"
	"strings"
)

// ExceptionHandler recovers from failures raised while processing a request.
// Handlers are searched on the current state first, then on the flow.
type ExceptionHandler interface {
	CanHandle(err error) bool
	// Handle returns the id of the state to enter next, or "" to stay.
	Handle(rc RequestContext, err error) (string, error)
}

// Flash scope keys set by TransitionExceptionHandler.
const (
	FlashKeyException = "flowExecutionException"
	FlashKeyRootCause = "rootCauseException"
)

// TransitionExceptionHandler exposes the failure in flash scope, runs its
// actions and transitions to Target.
type TransitionExceptionHandler struct {
	// Match selects the errors this handler recovers from. Nil matches all.
	Match   func(error) bool
	Target  TargetResolver
	Actions []Action
}

func (h *TransitionExceptionHandler) CanHandle(err error) bool {
	return h.Match == nil || h.Match(err)
}

func (h *TransitionExceptionHandler) Handle(rc RequestContext, err error) (string, error) {
	flash := rc.FlashScope()
	flash.Put(FlashKeyException, err.Error())
	flash.Put(FlashKeyRootCause, rootCause(err).Error())
	for _, a := range h.Actions {
		if _, aerr := a.Execute(rc); aerr != nil {
			return "", aerr
		}
	}
	if h.Target == nil {
		return "", nil
	}
	return h.Target.Resolve(rc)
}

// MatchError matches errors whose chain contains target (errors.Is).
func MatchError(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// MatchErrorType matches errors whose chain contains an error with the given
// type name. Both "NoMatchingTransitionError" and "domain.NoMatchingTransitionError"
// match *domain.NoMatchingTransitionError; "*" matches everything.
func MatchErrorType(name string) func(error) bool {
	return func(err error) bool {
		if name == WildcardEvent {
			return true
		}
		for _, e := range chain(err) {
			t := reflect.TypeOf(e)
			for t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			if t.Name() == name || t.String() == name || strings.HasSuffix(t.PkgPath()+"."+t.Name(), "/"+name) {
				return true
			}
		}
		return false
	}
}

func chain(err error) []error {
	var out []error
	queue := []error{err}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e == nil {
			continue
		}
		out = append(out, e)
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		}
	}
	return out
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

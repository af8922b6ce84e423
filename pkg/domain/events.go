package domain

import (
	"strings"

	"github.com/aretw0/arbor/pkg/attr"
)

// Standard event ids.
const (
	EventSuccess = "success"
	EventError   = "error"
	EventYes     = "yes"
	EventNo      = "no"
)

// WildcardEvent matches any event.
const WildcardEvent = "*"

// Event is a signal that drives a transition: an external user event, an
// action result or a subflow outcome.
type Event struct {
	ID         string    `json:"id"`
	Source     string    `json:"source,omitempty"`
	Attributes *attr.Map `json:"attributes,omitempty"`
}

// NewEvent creates an event with no attributes.
func NewEvent(source, id string) *Event {
	return &Event{ID: id, Source: source, Attributes: attr.New()}
}

// Success returns a success event.
func Success(source string) *Event { return NewEvent(source, EventSuccess) }

// Error returns an error event.
func Error(source string) *Event { return NewEvent(source, EventError) }

// Result returns yes or no.
func Result(source string, ok bool) *Event {
	if ok {
		return NewEvent(source, EventYes)
	}
	return NewEvent(source, EventNo)
}

// IsPass reports whether an action result lets a transition proceed.
// A nil event counts as success.
func IsPass(ev *Event) bool {
	if ev == nil {
		return true
	}
	switch strings.ToLower(ev.ID) {
	case EventSuccess, EventYes, "true":
		return true
	}
	return false
}

package runner

import (
	"context"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/ports"
)

// Command is a user reply: the event to signal and its request parameters.
type Command struct {
	EventID string    `json:"event"`
	Params  *attr.Map `json:"params,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a response: the rendered view of a paused execution
	// or the outcome of an ended one.
	Output(ctx context.Context, resp *ports.Response) error

	// Input reads the next command. It returns io.EOF when the user is done.
	Input(ctx context.Context) (Command, error)

	// SystemOutput presents a meta-message to the user (e.g. a rejected event).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/message"
)

// Response describes where a request left an execution.
type Response struct {
	Key       string            `json:"key"`
	FlowID    string            `json:"flow_id"`
	StateID   string            `json:"state_id,omitempty"`
	Paused    bool              `json:"paused"`
	Ended     bool              `json:"ended"`
	Rendering *domain.Rendering `json:"rendering,omitempty"`
	Outcome   *domain.Outcome   `json:"outcome,omitempty"`
	// Messages are the messages of the last rendered view, such as bind errors.
	Messages []message.Message `json:"messages,omitempty"`
	// Diff lists what the request changed, for clients patching a local copy.
	Diff *domain.ExecutionDiff `json:"diff,omitempty"`
	// Redirect asks the host to answer with a redirect to the execution
	// instead of rendering in the same response.
	Redirect bool `json:"redirect,omitempty"`
}

// FlowExecutor is the request-level entry point used by transport adapters.
// Implementations own persistence and locking; callers only see keys.
type FlowExecutor interface {
	// Launch starts a new execution of flowID.
	Launch(ctx context.Context, flowID string, input *attr.Map) (*Response, error)

	// Resume signals eventID with params to the paused execution key. An
	// empty eventID refreshes the current view.
	Resume(ctx context.Context, key, eventID string, params *attr.Map) (*Response, error)

	// Inspect returns the stored execution without resuming it.
	Inspect(ctx context.Context, key string) (*domain.Execution, error)
}

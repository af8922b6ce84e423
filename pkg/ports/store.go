package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// ExecutionStore persists paused executions between requests, keyed by
// Execution.Key. Implementations store a snapshot: mutating an execution
// after Save must not change what Load returns.
type ExecutionStore interface {
	// Save persists exec under exec.Key, replacing any previous snapshot.
	Save(ctx context.Context, exec *domain.Execution) error

	// Load retrieves the execution stored under key.
	// Returns domain.ErrExecutionNotFound if there is none.
	Load(ctx context.Context, key string) (*domain.Execution, error)

	// Delete removes the execution. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of the stored executions.
	List(ctx context.Context) ([]string, error)
}

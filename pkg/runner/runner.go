package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Runner handles the conversation loop against a FlowExecutor.
type Runner struct {
	Executor ports.FlowExecutor
	Handler  IOHandler
	Logger   *slog.Logger
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithHandler configures the IOHandler. The default is a TextHandler on Stdin/Stdout.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// New creates a Runner over exec.
func New(exec ports.FlowExecutor, opts ...Option) *Runner {
	r := &Runner{
		Executor: exec,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run launches flowID with input and converses until the flow ends, the
// user quits or ctx is cancelled. It returns the last response; a paused
// response means the execution can be continued later with Continue.
func (r *Runner) Run(ctx context.Context, flowID string, input *attr.Map) (*ports.Response, error) {
	resp, err := r.Executor.Launch(ctx, flowID, input)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", flowID, err)
	}
	return r.loop(ctx, resp)
}

// Continue re-renders the paused execution key and converses from there.
func (r *Runner) Continue(ctx context.Context, key string) (*ports.Response, error) {
	resp, err := r.Executor.Resume(ctx, key, "", nil)
	if err != nil {
		return nil, fmt.Errorf("continue %s: %w", key, err)
	}
	return r.loop(ctx, resp)
}

func (r *Runner) loop(ctx context.Context, resp *ports.Response) (*ports.Response, error) {
	for {
		if err := r.Handler.Output(ctx, resp); err != nil {
			return resp, fmt.Errorf("output error: %w", err)
		}
		if resp.Ended {
			return resp, nil
		}
		next, err := r.step(ctx, resp)
		if err != nil || next == nil {
			return resp, err
		}
		resp = next
	}
}

// step reads commands until one moves the execution forward. A nil
// response without error means the conversation was suspended.
func (r *Runner) step(ctx context.Context, resp *ports.Response) (*ports.Response, error) {
	for {
		cmd, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.Logger.Debug("conversation suspended", "execution", resp.Key, "state", resp.StateID)
				return nil, nil
			}
			return nil, fmt.Errorf("input error: %w", err)
		}
		if cmd.EventID == "" {
			continue
		}

		next, err := r.Executor.Resume(ctx, resp.Key, cmd.EventID, cmd.Params)
		if err == nil {
			return next, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		r.Logger.Debug("event rejected", "execution", resp.Key, "event", cmd.EventID, "err", err)
		if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
			return nil, err
		}
	}
}

// recoverable reports whether the user can retry after err. The execution
// snapshot is left untouched by a failed resume.
func recoverable(err error) bool {
	var (
		noMatch  *domain.NoMatchingTransitionError
		mapping  *runtime.MappingError
		mismatch *attr.TypeMismatchError
	)
	return errors.As(err, &noMatch) || errors.As(err, &mapping) || errors.As(err, &mismatch)
}

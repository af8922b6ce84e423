package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/message"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

// Executor runs flow executions across requests: it launches them, resumes
// them from the store under a per-key lock, and persists or removes them
// depending on where the request left them.
type Executor struct {
	flows    runtime.FlowLocator
	engine   *runtime.Engine
	sessions *session.Manager
	logger   *slog.Logger

	engineOpts  []runtime.Option
	sessionOpts []session.Option

	alwaysRedirectOnPause bool
	redirectInSameState   bool
}

var _ ports.FlowExecutor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithListeners registers lifecycle listeners, notified in order.
func WithListeners(l ...domain.Listener) Option {
	return func(e *Executor) {
		e.engineOpts = append(e.engineOpts, runtime.WithListeners(l...))
	}
}

// WithKeyGenerator sets how execution keys are generated.
func WithKeyGenerator(fn func() string) Option {
	return func(e *Executor) {
		e.engineOpts = append(e.engineOpts, runtime.WithKeyGenerator(fn))
	}
}

// WithMaxSteps bounds the number of states one request may enter.
func WithMaxSteps(n int) Option {
	return func(e *Executor) {
		e.engineOpts = append(e.engineOpts, runtime.WithMaxSteps(n))
	}
}

// WithMessageSource sets the texts request messages are resolved against.
func WithMessageSource(src message.Source) Option {
	return func(e *Executor) {
		e.engineOpts = append(e.engineOpts, runtime.WithMessageSource(src))
	}
}

// WithLocker coordinates executions across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Executor) {
		e.sessionOpts = append(e.sessionOpts, session.WithLocker(l))
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Executor) {
		e.sessionOpts = append(e.sessionOpts, session.WithLockTTL(ttl))
	}
}

// WithAlwaysRedirectOnPause asks hosts to redirect after every pause.
func WithAlwaysRedirectOnPause(enabled bool) Option {
	return func(e *Executor) {
		e.alwaysRedirectOnPause = enabled
	}
}

// WithRedirectInSameState asks hosts to redirect when a request pauses in
// the state it started from, e.g. after a refresh. A request that raised
// messages, such as a failed bind, is answered in place.
func WithRedirectInSameState(enabled bool) Option {
	return func(e *Executor) {
		e.redirectInSameState = enabled
	}
}

// WithLogger sets the logger of the executor and of the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// New creates an executor resolving flows through flows and persisting
// paused executions in store.
func New(flows runtime.FlowLocator, store ports.ExecutionStore, opts ...Option) *Executor {
	e := &Executor{
		flows:  flows,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	engineOpts := append([]runtime.Option{runtime.WithLogger(e.logger)}, e.engineOpts...)
	e.engine = runtime.NewEngine(flows, engineOpts...)
	sessionOpts := append([]session.Option{session.WithLogger(e.logger)}, e.sessionOpts...)
	e.sessions = session.NewManager(store, sessionOpts...)
	return e
}

// Launch starts a new execution of flowID. A paused execution is saved; one
// that ended in the same request is never stored.
func (e *Executor) Launch(ctx context.Context, flowID string, input *attr.Map) (*ports.Response, error) {
	flow, err := e.flows.Lookup(flowID)
	if err != nil {
		return nil, err
	}
	res, err := e.engine.Start(ctx, flow, input, domain.NewExternal(ctx, "", input))
	if err != nil {
		return nil, err
	}
	if res.Paused {
		if err := e.sessions.Save(ctx, res.Execution); err != nil {
			return nil, err
		}
	}
	e.logger.InfoContext(ctx, "execution launched", "flow", flowID, "execution", res.Execution.Key, "paused", res.Paused)
	resp := e.respond(res, e.alwaysRedirectOnPause)
	resp.Diff = domain.Diff(nil, res.Execution)
	return resp, nil
}

// Resume signals eventID to the execution key. The updated execution is
// saved when it pauses again and deleted when it ends. A failed request
// leaves the stored snapshot untouched.
func (e *Executor) Resume(ctx context.Context, key, eventID string, params *attr.Map) (*ports.Response, error) {
	var resp *ports.Response
	err := e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		store := e.sessions.Store()
		exec, err := store.Load(ctx, key)
		if err != nil {
			return err
		}
		from := position(exec)
		before, err := exec.Clone()
		if err != nil {
			return err
		}

		res, err := e.engine.Resume(ctx, exec, domain.NewExternal(ctx, eventID, params))
		if err != nil {
			return err
		}
		if res.Ended {
			if err := store.Delete(ctx, key); err != nil {
				return err
			}
		} else if err := store.Save(ctx, res.Execution); err != nil {
			return err
		}

		redirect := e.alwaysRedirectOnPause || (e.redirectInSameState && position(res.Execution) == from)
		resp = e.respond(res, redirect)
		resp.Diff = domain.Diff(before, res.Execution)
		return nil
	})
	if err != nil {
		e.logger.WarnContext(ctx, "resume failed", "execution", key, "event", eventID, "err", err)
		return nil, err
	}
	e.logger.DebugContext(ctx, "execution resumed", "execution", key, "event", eventID, "state", resp.StateID, "ended", resp.Ended)
	return resp, nil
}

// Inspect loads the execution key without resuming it.
func (e *Executor) Inspect(ctx context.Context, key string) (*domain.Execution, error) {
	return e.sessions.Load(ctx, key)
}

// List returns the keys of the stored executions.
func (e *Executor) List(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

func (e *Executor) respond(res *runtime.Result, redirect bool) *ports.Response {
	exec := res.Execution
	resp := &ports.Response{
		Key:       exec.Key,
		FlowID:    exec.FlowID,
		Paused:    res.Paused,
		Ended:     res.Ended,
		Rendering: res.Rendering,
		Outcome:   res.Outcome,
	}
	if res.Rendering != nil {
		resp.Messages = res.Rendering.Messages
	}
	// Messages live for one rendering only, so they are answered in place.
	resp.Redirect = res.Paused && redirect && len(resp.Messages) == 0
	if s := exec.ActiveSession(); s != nil {
		resp.StateID = s.StateID
	}
	return resp
}

// position identifies the active flow and state of exec.
func position(exec *domain.Execution) string {
	s := exec.ActiveSession()
	if s == nil {
		return ""
	}
	return s.FlowID + ":" + s.StateID
}

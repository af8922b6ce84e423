package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/message"
	"github.com/google/uuid"
)

// EventSourceExternal is the source of events signaled by the caller.
const EventSourceExternal = "external"

// DefaultMaxSteps bounds the number of states a single request may enter.
const DefaultMaxSteps = 1000

// FlowLocator resolves flow definitions by id.
type FlowLocator interface {
	Lookup(id string) (*domain.Flow, error)
}

// Engine drives executions one request at a time. It holds no per-execution
// state and is safe for concurrent use on different executions.
type Engine struct {
	flows     FlowLocator
	listeners listeners
	logger    *slog.Logger
	newKey    func() string
	maxSteps  int
	messages  message.Source
}

// Option configures the Engine.
type Option func(*Engine)

// WithListeners appends lifecycle listeners. They are notified in order.
func WithListeners(l ...domain.Listener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithKeyGenerator sets how execution keys are generated. Defaults to random UUIDs.
func WithKeyGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newKey = fn
	}
}

// WithMaxSteps bounds the number of states entered while processing one request.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithMessageSource sets the texts request messages are resolved against
// when a view renders.
func WithMessageSource(src message.Source) Option {
	return func(e *Engine) {
		e.messages = src
	}
}

// NewEngine creates an engine resolving flows through flows.
func NewEngine(flows FlowLocator, opts ...Option) *Engine {
	e := &Engine{
		flows:    flows,
		logger:   logging.NewNop(),
		newKey:   uuid.NewString,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result describes where a request left the execution.
type Result struct {
	Execution *domain.Execution
	// Rendering is the last view rendered by the request, if any.
	Rendering *domain.Rendering
	// Paused is true when the execution waits for the next event.
	Paused bool
	// Ended is true when the root session ended. Outcome is then set.
	Ended   bool
	Outcome *domain.Outcome
}

// ErrTooManySteps is returned when a request enters more states than allowed,
// usually because action or decision states loop without pausing.
var ErrTooManySteps = errors.New("too many states entered in a single request")

// Start launches a new execution of flow with input and runs it until it
// pauses on a view state or ends.
func (e *Engine) Start(ctx context.Context, flow *domain.Flow, input *attr.Map, ext domain.ExternalContext) (*Result, error) {
	if flow == nil {
		return nil, errors.New("flow is required")
	}
	exec := domain.NewExecution(e.newKey(), flow.ID)
	rc := e.newRequestContext(ctx, exec, ext)

	e.logger.DebugContext(ctx, "starting execution", "key", exec.Key, "flow", flow.ID)
	err := e.process(rc, func() error {
		return e.startSession(rc, flow, input)
	})
	return e.result(rc), err
}

// Resume signals the external event of ext against a paused execution. An
// empty event id re-renders the current view.
func (e *Engine) Resume(ctx context.Context, exec *domain.Execution, ext domain.ExternalContext) (*Result, error) {
	if exec.HasEnded() {
		return nil, domain.ErrExecutionEnded
	}
	if !exec.IsActive() || exec.ActiveSession() == nil {
		return nil, domain.ErrNoActiveSession
	}
	rc := e.newRequestContext(ctx, exec, ext)

	e.logger.DebugContext(ctx, "resuming execution", "key", exec.Key, "flow", exec.ActiveSession().FlowID, "event", rc.External().EventID())
	err := e.process(rc, func() error {
		if err := e.restore(rc); err != nil {
			return err
		}
		return e.resume(rc)
	})
	return e.result(rc), err
}

// process runs fn inside the request boundary: RequestSubmitted before,
// exception handling on failure, scope cleanup and RequestProcessed after.
func (e *Engine) process(rc *requestContext, fn func() error) (err error) {
	defer func() {
		for _, s := range rc.exec.Stack {
			s.RequestScope().Clear()
		}
		rc.exec.UpdatedAt = time.Now()
		if perr := e.listeners.requestProcessed(rc); perr != nil && err == nil {
			err = e.wrap(rc, perr)
		}
	}()

	err = e.listeners.requestSubmitted(rc)
	if err == nil {
		err = fn()
	}
	if err != nil {
		err = e.recover(rc, err)
	}
	return err
}

func (e *Engine) resume(rc *requestContext) error {
	if err := e.listeners.resuming(rc); err != nil {
		return err
	}
	s := rc.ActiveSession()
	s.Status = domain.SessionActive
	st, err := s.State()
	if err != nil {
		return err
	}
	rc.state = st

	eventID := rc.External().EventID()
	if eventID == "" {
		if st.Kind != domain.KindView {
			return fmt.Errorf("cannot refresh %s: not a view state", st)
		}
		return e.render(rc, st)
	}
	ev := domain.NewEvent(EventSourceExternal, eventID)
	ev.Attributes = rc.External().Parameters().Clone()
	return e.signal(rc, ev)
}

// restore links sessions of a decoded execution back to their flow
// definitions and lets flow variables restore their references.
func (e *Engine) restore(rc *requestContext) error {
	exec := rc.exec
	linked := true
	for _, s := range exec.Stack {
		if s.Flow() == nil {
			linked = false
			break
		}
	}
	if linked && !exec.Restored() {
		return nil
	}
	for _, s := range exec.Stack {
		flow, err := e.flows.Lookup(s.FlowID)
		if err != nil {
			return fmt.Errorf("restore execution '%s': %w", exec.Key, err)
		}
		s.LinkFlow(flow)
	}
	for _, s := range exec.Stack {
		scoped := rc.forSession(s)
		for _, v := range s.Flow().Variables {
			if err := v.Restore(scoped); err != nil {
				return fmt.Errorf("restore variable '%s' of flow '%s': %w", v.Name, s.FlowID, err)
			}
		}
	}
	exec.MarkLinked()
	return nil
}

func (e *Engine) result(rc *requestContext) *Result {
	return &Result{
		Execution: rc.exec,
		Rendering: rc.rendering,
		Paused:    rc.paused && rc.exec.IsActive(),
		Ended:     rc.exec.HasEnded(),
		Outcome:   rc.exec.Outcome,
	}
}

// step counts entered states and fails once the request exceeds maxSteps.
func (e *Engine) step(rc *requestContext) error {
	rc.steps++
	if e.maxSteps > 0 && rc.steps > e.maxSteps {
		return ErrTooManySteps
	}
	return nil
}

func (e *Engine) wrap(rc *requestContext, err error) error {
	var fe *domain.FlowExecutionError
	if errors.As(err, &fe) {
		return err
	}
	out := &domain.FlowExecutionError{FlowID: rc.exec.FlowID, Err: err}
	if s := rc.ActiveSession(); s != nil {
		out.FlowID = s.FlowID
		out.StateID = s.StateID
	}
	return out
}

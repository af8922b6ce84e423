package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
)

// LoggingListener logs every lifecycle point. Exceptions are logged at warn
// level, everything else at Level.
type LoggingListener struct {
	Logger *slog.Logger
	Level  slog.Level
}

// NewLoggingListener creates a listener logging at debug level. A nil
// logger discards everything.
func NewLoggingListener(logger *slog.Logger) *LoggingListener {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LoggingListener{Logger: logger, Level: slog.LevelDebug}
}

func (l *LoggingListener) log(rc domain.RequestContext, level slog.Level, msg string, args ...any) {
	ctx := rc.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	args = append(args, "execution", executionKey(rc), "flow", flowID(rc))
	l.Logger.Log(ctx, level, msg, args...)
}

func (l *LoggingListener) RequestSubmitted(rc domain.RequestContext) error {
	l.log(rc, l.Level, "request submitted", "event", rc.External().EventID())
	return nil
}

func (l *LoggingListener) RequestProcessed(rc domain.RequestContext) error {
	l.log(rc, l.Level, "request processed")
	return nil
}

func (l *LoggingListener) SessionCreating(rc domain.RequestContext, flow *domain.Flow) error {
	l.log(rc, l.Level, "session creating", "subflow", flow.ID)
	return nil
}

func (l *LoggingListener) SessionStarting(rc domain.RequestContext, s *domain.Session, input *attr.Map) error {
	l.log(rc, l.Level, "session starting", "session", s.ID, "input", input.Len())
	return nil
}

func (l *LoggingListener) SessionStarted(rc domain.RequestContext, s *domain.Session) error {
	l.log(rc, l.Level, "session started", "session", s.ID, "state", s.StateID)
	return nil
}

func (l *LoggingListener) EventSignaled(rc domain.RequestContext, ev *domain.Event) error {
	l.log(rc, l.Level, "event signaled", "event", ev.ID, "source", ev.Source, "state", stateID(rc))
	return nil
}

func (l *LoggingListener) TransitionExecuting(rc domain.RequestContext, t *domain.Transition) error {
	l.log(rc, l.Level, "transition executing", "on", t.On, "state", stateID(rc))
	return nil
}

func (l *LoggingListener) StateEntering(rc domain.RequestContext, st *domain.State) error {
	l.log(rc, l.Level, "state entering", "state", st.ID, "kind", st.Kind)
	return nil
}

func (l *LoggingListener) StateEntered(rc domain.RequestContext, previous, st *domain.State) error {
	from := ""
	if previous != nil {
		from = previous.ID
	}
	l.log(rc, l.Level, "state entered", "state", st.ID, "from", from)
	return nil
}

func (l *LoggingListener) ViewRendering(rc domain.RequestContext, st *domain.State) error {
	l.log(rc, l.Level, "view rendering", "state", st.ID)
	return nil
}

func (l *LoggingListener) ViewRendered(rc domain.RequestContext, st *domain.State, r *domain.Rendering) error {
	l.log(rc, l.Level, "view rendered", "state", st.ID, "view", r.View)
	return nil
}

func (l *LoggingListener) Paused(rc domain.RequestContext) error {
	l.log(rc, l.Level, "paused", "state", stateID(rc))
	return nil
}

func (l *LoggingListener) Resuming(rc domain.RequestContext) error {
	l.log(rc, l.Level, "resuming", "state", stateID(rc))
	return nil
}

func (l *LoggingListener) SessionEnding(rc domain.RequestContext, s *domain.Session, output *attr.Map) error {
	l.log(rc, l.Level, "session ending", "session", s.ID, "state", s.StateID)
	return nil
}

func (l *LoggingListener) SessionEnded(rc domain.RequestContext, s *domain.Session, outcome *domain.Outcome) error {
	l.log(rc, l.Level, "session ended", "session", s.ID, "outcome", outcome.ID)
	return nil
}

func (l *LoggingListener) ExceptionThrown(rc domain.RequestContext, err error) error {
	l.log(rc, slog.LevelWarn, "exception thrown", "state", stateID(rc), "err", err)
	return nil
}

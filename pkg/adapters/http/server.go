package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/go-chi/chi/v5"
)

// EventIDParam is the request parameter carrying the event to signal.
// A parameter named "_eventId_<id>" (e.g. a submit button) also selects <id>.
const EventIDParam = "_eventId"

// Server exposes a FlowExecutor over HTTP.
type Server struct {
	Executor ports.FlowExecutor
	Streams  *StreamManager
	logger   *slog.Logger
	flows    func() []string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithFlowList enables GET /flows, listing the ids returned by fn.
func WithFlowList(fn func() []string) Option {
	return func(s *Server) {
		s.flows = fn
	}
}

// NewHandler creates the HTTP handler for executor.
//
//	GET  /health                health probe
//	GET  /info                  application and version
//	GET  /flows                 launchable flow ids (WithFlowList)
//	POST /flows/{flowID}        launch; parameters become the flow input
//	GET  /executions/{key}      stored execution snapshot
//	POST /executions/{key}      resume with _eventId and parameters
//	GET  /executions/{key}/view refresh the current view
//	GET  /events?execution=key  server-sent diffs of an execution
func NewHandler(executor ports.FlowExecutor, opts ...Option) http.Handler {
	s := &Server{
		Executor: executor,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/flows", s.ListFlows)
	r.Post("/flows/{flowID}", s.Launch)
	r.Get("/executions/{key}", s.Inspect)
	r.Post("/executions/{key}", s.Resume)
	r.Get("/executions/{key}/view", s.Refresh)
	r.Get("/events", s.SubscribeEvents)
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Launch handles POST /flows/{flowID}.
func (s *Server) Launch(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	params, _, err := parameters(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := s.Executor.Launch(r.Context(), flowID, params)
	if err != nil {
		s.fail(w, "Launch", err)
		return
	}
	s.publish(resp)
	s.respond(w, r, http.StatusCreated, resp)
}

// Resume handles POST /executions/{key}.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	params, eventID, err := parameters(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if eventID == "" {
		http.Error(w, "Missing "+EventIDParam, http.StatusBadRequest)
		return
	}

	resp, err := s.Executor.Resume(r.Context(), key, eventID, params)
	if err != nil {
		s.fail(w, "Resume", err)
		return
	}
	s.publish(resp)
	s.respond(w, r, http.StatusOK, resp)
}

// Refresh handles GET /executions/{key}/view.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	resp, err := s.Executor.Resume(r.Context(), key, "", nil)
	if err != nil {
		s.fail(w, "Refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Inspect handles GET /executions/{key}.
func (s *Server) Inspect(w http.ResponseWriter, r *http.Request) {
	exec, err := s.Executor.Inspect(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, "Inspect", err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

// ListFlows handles GET /flows.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	if s.flows == nil {
		http.Error(w, "Flow listing disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.flows())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// respond answers with a 303 to the execution view when the executor asks
// for a redirect, and with the response document otherwise.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, resp *ports.Response) {
	if resp.Redirect {
		http.Redirect(w, r, "/executions/"+url.PathEscape(resp.Key)+"/view", http.StatusSeeOther)
		return
	}
	writeJSON(w, status, resp)
}

func (s *Server) publish(resp *ports.Response) {
	if resp.Diff == nil {
		return
	}
	data, err := json.Marshal(resp.Diff)
	if err != nil {
		s.logger.Warn("diff encode failed", "execution", resp.Key, "err", err)
		return
	}
	s.Streams.Broadcast(resp.Key, string(data))
}

// fail maps err to a status code.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "status", status, "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

func statusOf(err error) int {
	var (
		notFound *registry.NotFoundError
		noMatch  *domain.NoMatchingTransitionError
		mapping  *runtime.MappingError
		mismatch *attr.TypeMismatchError
	)
	switch {
	case errors.Is(err, domain.ErrExecutionNotFound), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExecutionEnded):
		return http.StatusGone
	case errors.As(err, &noMatch):
		return http.StatusConflict
	case errors.As(err, &mapping), errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// parameters reads request parameters from the query string plus a form or
// JSON body, and extracts the event id.
func parameters(r *http.Request) (*attr.Map, string, error) {
	params := attr.New()
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" && r.Body != nil {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, "", err
		}
		for k, v := range r.URL.Query() {
			params.Put(k, flatten(v))
		}
		for k, v := range body {
			params.Put(k, v)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, "", err
		}
		for k, v := range r.Form {
			params.Put(k, flatten(v))
		}
	}
	return params, eventID(params), nil
}

func flatten(v []string) any {
	if len(v) == 1 {
		return v[0]
	}
	return v
}

// eventID removes the event parameters from params and returns the event.
func eventID(params *attr.Map) string {
	var id string
	if v, ok := params.Remove(EventIDParam).(string); ok {
		id = v
	}
	for _, k := range params.Keys() {
		if name, ok := strings.CutPrefix(k, EventIDParam+"_"); ok {
			params.Remove(k)
			if id == "" {
				id = name
			}
		}
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package observability

import (
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsListener records Prometheus metrics for the engine lifecycle.
type MetricsListener struct {
	domain.NopListener

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SessionsStarted *prometheus.CounterVec
	SessionsEnded   *prometheus.CounterVec
	StateEntries    *prometheus.CounterVec
	Events          *prometheus.CounterVec
	Exceptions      *prometheus.CounterVec

	// started holds the submission time of in-flight requests.
	started sync.Map
}

// MetricsOption configures a MetricsListener.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	namespace  string
	registerer prometheus.Registerer
	buckets    []float64
}

// WithNamespace prefixes every metric name. The default is "arbor".
func WithNamespace(ns string) MetricsOption {
	return func(c *metricsConfig) {
		c.namespace = ns
	}
}

// WithRegisterer registers the metrics with r instead of the default registry.
func WithRegisterer(r prometheus.Registerer) MetricsOption {
	return func(c *metricsConfig) {
		c.registerer = r
	}
}

// WithBuckets sets the request duration histogram buckets.
func WithBuckets(b []float64) MetricsOption {
	return func(c *metricsConfig) {
		c.buckets = b
	}
}

// NewMetricsListener creates the metrics and registers them.
func NewMetricsListener(opts ...MetricsOption) (*MetricsListener, error) {
	cfg := &metricsConfig{
		namespace:  "arbor",
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &MetricsListener{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "requests_total",
			Help:      "Total number of requests processed, by root flow and result (ok or exception).",
		}, []string{"flow", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests from submission to processing.",
			Buckets:   cfg.buckets,
		}, []string{"flow"}),
		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of flow sessions started.",
		}, []string{"flow"}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "sessions_ended_total",
			Help:      "Total number of flow sessions ended, by outcome.",
		}, []string{"flow", "outcome"}),
		StateEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "state_entries_total",
			Help:      "Total number of state entries.",
		}, []string{"flow", "state"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "events_total",
			Help:      "Total number of events signaled.",
		}, []string{"flow", "event"}),
		Exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "exceptions_total",
			Help:      "Total number of exceptions thrown while processing requests.",
		}, []string{"flow"}),
	}

	for _, c := range m.collectors() {
		if err := cfg.registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsListener) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests, m.RequestDuration, m.SessionsStarted, m.SessionsEnded,
		m.StateEntries, m.Events, m.Exceptions,
	}
}

// Describe implements prometheus.Collector.
func (m *MetricsListener) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *MetricsListener) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

type requestStart struct {
	at     time.Time
	failed bool
}

func (m *MetricsListener) RequestSubmitted(rc domain.RequestContext) error {
	m.started.Store(rc, &requestStart{at: time.Now()})
	return nil
}

func (m *MetricsListener) RequestProcessed(rc domain.RequestContext) error {
	flow := ""
	if exec := rc.Execution(); exec != nil {
		flow = exec.FlowID
	}
	result := "ok"
	if v, ok := m.started.LoadAndDelete(rc); ok {
		start := v.(*requestStart)
		m.RequestDuration.WithLabelValues(flow).Observe(time.Since(start.at).Seconds())
		if start.failed {
			result = "exception"
		}
	}
	m.Requests.WithLabelValues(flow, result).Inc()
	return nil
}

func (m *MetricsListener) SessionStarted(rc domain.RequestContext, s *domain.Session) error {
	m.SessionsStarted.WithLabelValues(s.FlowID).Inc()
	return nil
}

func (m *MetricsListener) SessionEnded(rc domain.RequestContext, s *domain.Session, outcome *domain.Outcome) error {
	id := ""
	if outcome != nil {
		id = outcome.ID
	}
	m.SessionsEnded.WithLabelValues(s.FlowID, id).Inc()
	return nil
}

func (m *MetricsListener) StateEntered(rc domain.RequestContext, previous, st *domain.State) error {
	m.StateEntries.WithLabelValues(flowID(rc), st.ID).Inc()
	return nil
}

func (m *MetricsListener) EventSignaled(rc domain.RequestContext, ev *domain.Event) error {
	m.Events.WithLabelValues(flowID(rc), ev.ID).Inc()
	return nil
}

func (m *MetricsListener) ExceptionThrown(rc domain.RequestContext, err error) error {
	m.Exceptions.WithLabelValues(flowID(rc)).Inc()
	if v, ok := m.started.Load(rc); ok {
		v.(*requestStart).failed = true
	}
	return nil
}

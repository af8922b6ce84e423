package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/arbor"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ShutdownTimeout bounds how long in-flight requests may take after a
// shutdown signal.
const ShutdownTimeout = 5 * time.Second

// ServeOptions contains the configuration of the serve command.
type ServeOptions struct {
	Dir         string
	Addr        string
	Development bool
	Metrics     bool
	Commands    string
	Store       StoreOptions
}

// NewServer loads the app and returns the HTTP handler exposing it. With
// metrics enabled the handler also serves /metrics from its own registry.
func NewServer(opts ServeOptions, logger *slog.Logger) (http.Handler, *arbor.App, error) {
	p, err := OpenStore(opts.Store, logger)
	if err != nil {
		return nil, nil, err
	}

	var (
		extra []arbor.Option
		reg   *prometheus.Registry
	)
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetricsListener(observability.WithRegisterer(reg))
		if err != nil {
			return nil, nil, err
		}
		extra = append(extra, arbor.WithListeners(metrics))
	}

	app, err := OpenApp(AppConfig{Dir: opts.Dir, Commands: opts.Commands, Development: opts.Development}, p, logger, extra...)
	if err != nil {
		return nil, nil, err
	}

	r := chi.NewRouter()
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	r.Mount("/", httpAdapter.NewHandler(app,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithFlowList(app.FlowIDs),
	))
	return r, app, nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func Serve(ctx context.Context, opts ServeOptions, logger *slog.Logger) error {
	handler, app, err := NewServer(opts, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", srv.Addr, "flows", len(app.FlowIDs()), "dir", opts.Dir)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", "err", err)
		return srv.Close()
	}
	logger.Info("server stopped gracefully")
	return nil
}

/*
Package observability provides lifecycle listeners for monitoring the Arbor engine.

LoggingListener writes every lifecycle point to a slog.Logger. MetricsListener
records Prometheus counters and a request latency histogram. Both implement
domain.Listener and are installed with runtime.WithListeners or
executor.WithListeners.
*/
package observability

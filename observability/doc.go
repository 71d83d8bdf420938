// Package observability provides an OpenTelemetry metrics extension for
// conductor. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for scheduled, started, ended and errored jobs,
// scheduler pauses, and trigger fires.
//
// For per-run tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability

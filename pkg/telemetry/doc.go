// Package telemetry groups courier's observability packages.
//
//   - logging: slog setup, context attributes and API key redaction
//   - metrics: Prometheus collector, written to a textfile after each run
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: the checks behind "courier check"
//
// Courier is a short-lived process, so metrics are not served over HTTP:
// the collector is flushed to a node_exporter textfile or to stderr when
// the command finishes.
package telemetry

// Package tracing configures OpenTelemetry for Courier.
//
// When enabled, spans are exported over OTLP gRPC and the W3C trace context
// propagator is installed globally. Every outbound request carries a
// traceparent header, so an intercepting proxy that records headers can
// correlate its log entries with the client trace.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// Disabled tracing costs a noop span per request.
package tracing

// Package metrics provides Prometheus metrics for Courier requests.
//
// # Overview
//
// Each run records request count and duration, token usage, body sizes,
// provider errors and retries, and estimated cost on a private registry.
// The collector satisfies the providers.Observer interface, so the HTTP
// client reports attempts without depending on Prometheus.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	provider, err := openai.NewProvider(cfg, openai.WithObserver(collector))
//	...
//	if err := collector.WriteTextfile(cfg.Telemetry.Metrics.Textfile); err != nil {
//		slog.Warn("failed to write metrics", "error", err)
//	}
//
// # Metric Names
//
// All metrics use the configured namespace and subsystem, courier_client_
// by default:
//
//	courier_client_requests_total{provider,model,status}
//	courier_client_request_duration_seconds{provider,model}
//	courier_client_request_tokens{provider,model,type}
//	courier_client_request_size_bytes{provider,model,direction}
//	courier_client_provider_health{provider}
//	courier_client_provider_errors_total{provider,error_type}
//	courier_client_provider_retries_total{provider}
//	courier_client_cost_total{provider,model}
//	courier_client_cost_per_request{provider,model}
package metrics

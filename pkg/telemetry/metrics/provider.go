package metrics

import (
	"mercator-hq/courier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks provider health, errors and retries.
//
// Metrics:
//   - courier_client_provider_health: Provider health status (1=healthy, 0=unhealthy)
//   - courier_client_provider_errors_total: Failed attempts by error type
//   - courier_client_provider_retries_total: Retried attempts
type ProviderMetrics struct {
	health  *prometheus.GaugeVec
	errors  *prometheus.CounterVec
	retries *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total number of failed provider attempts by type",
			},
			[]string{"provider", "error_type"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_retries_total",
				Help:      "Total number of retried provider attempts",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.errors,
		pm.retries,
	)

	return pm
}

// UpdateHealth sets the gauge to 1 when healthy, 0 otherwise.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordError records an error from a provider.
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordRetry records one retried attempt.
func (pm *ProviderMetrics) RecordRetry(provider string) {
	pm.retries.WithLabelValues(provider).Inc()
}

package metrics

import (
	"fmt"
	"io"
	"time"

	"mercator-hq/courier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector owns the Prometheus registry for a Courier run and records
// request, provider and cost metrics.
//
// A CLI run has no scrape endpoint, so the registry is written out once at
// exit with WriteTextfile, typically into a node_exporter textfile
// collector directory.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics
	costMetrics     *CostMetrics
}

// NewCollector creates a collector registered on registry. A nil registry
// gets a fresh private one, never the global default.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	defer collector.WriteTextfile(cfg.Telemetry.Metrics.Textfile)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}
	if len(cfg.TokenCountBuckets) == 0 {
		cfg.TokenCountBuckets = config.DefaultTokenCountBuckets
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		requestMetrics:  NewRequestMetrics(cfg, registry),
		providerMetrics: NewProviderMetrics(cfg, registry),
		costMetrics:     NewCostMetrics(cfg, registry),
	}
}

// ObserveRequest records a finished request.
//
// status is "success" or "error". Retries of the same logical request are
// not counted again.
func (c *Collector) ObserveRequest(provider, model, status string, duration time.Duration) {
	c.requestMetrics.RecordRequest(provider, model, status, duration)
}

// ObserveTokens records prompt and completion token usage.
func (c *Collector) ObserveTokens(provider, model string, promptTokens, completionTokens int) {
	c.requestMetrics.RecordTokens(provider, model, promptTokens, completionTokens)
}

// ObserveSize records the size of a request or response body.
func (c *Collector) ObserveSize(provider, model, direction string, sizeBytes int) {
	c.requestMetrics.RecordSize(provider, model, direction, sizeBytes)
}

// ObserveError records a failed attempt by error type.
//
// Common error types:
//   - "proxy": The proxy refused or could not be reached
//   - "rate_limit": Provider rate limit exceeded
//   - "timeout": Request timeout
//   - "auth": Authentication error
//   - "server_error": Provider server error (5xx)
//   - "network": Network connectivity error
//   - "parse": Response parsing error
func (c *Collector) ObserveError(provider, errorType string) {
	c.providerMetrics.RecordError(provider, errorType)
}

// ObserveRetry records a retried attempt.
func (c *Collector) ObserveRetry(provider string) {
	c.providerMetrics.RecordRetry(provider)
}

// UpdateProviderHealth sets the health gauge for a provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	c.providerMetrics.UpdateHealth(provider, healthy)
}

// RecordCost records the estimated cost of a completed request in USD.
func (c *Collector) RecordCost(provider, model string, costUSD float64) {
	c.costMetrics.RecordRequestCost(provider, model, costUSD)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile atomically writes all metrics in the Prometheus text format.
// An empty path is a no-op.
func (c *Collector) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// WriteTo writes all metrics in the Prometheus text format to w.
func (c *Collector) WriteTo(w io.Writer) (int64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return 0, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var total int64
	for _, mf := range families {
		n, err := expfmt.MetricFamilyToText(w, mf)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

package config

import "time"

// Default values for configuration fields.
const (
	// Client defaults
	DefaultClientName          = "openai"
	DefaultBaseURL             = "http://api.openai.com/v1"
	DefaultClientTimeout       = 60 * time.Second
	DefaultClientMaxRetries    = 0
	DefaultMaxIdleConns        = 10
	DefaultMaxIdleConnsPerHost = 2
	DefaultIdleConnTimeout     = 90 * time.Second

	// Proxy defaults
	DefaultProxyURL      = "http://localhost:8080"
	DefaultTLSMinVersion = "1.2"

	// Request defaults
	DefaultModel   = "gpt-3.5-turbo"
	DefaultMessage = "Hello, you are amazing."

	// Secrets defaults
	DefaultSecretsCacheTTL = 5 * time.Minute

	// Evidence defaults
	DefaultEvidencePath           = "courier-evidence.db"
	DefaultEvidenceMaxFieldLength = 500
	DefaultEvidenceBusyTimeout    = 5 * time.Second

	// DefaultCharsPerToken applies when no ratio matches a model.
	DefaultCharsPerToken = 4.0

	// Telemetry defaults
	DefaultLoggingLevel        = "warn"
	DefaultLoggingFormat       = "text"
	DefaultMetricsNamespace    = "courier"
	DefaultMetricsSubsystem    = "client"
	DefaultTracingSampler      = "always"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingExporter     = "otlp"
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingServiceName  = "courier"
	DefaultOTLPTimeout         = 10 * time.Second

	// MaxClientRetries caps client.max_retries.
	MaxClientRetries = 10
)

// DefaultRequestDurationBuckets are the request latency histogram buckets in seconds.
var DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}

// DefaultTokenCountBuckets are the token count histogram buckets.
var DefaultTokenCountBuckets = []float64{10, 50, 100, 500, 1000, 5000, 10000}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Client defaults
	if cfg.Client.Name == "" {
		cfg.Client.Name = DefaultClientName
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = DefaultBaseURL
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = DefaultClientTimeout
	}
	if cfg.Client.MaxIdleConns == 0 {
		cfg.Client.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Client.MaxIdleConnsPerHost == 0 {
		cfg.Client.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.Client.IdleConnTimeout == 0 {
		cfg.Client.IdleConnTimeout = DefaultIdleConnTimeout
	}

	// Proxy defaults
	if cfg.Proxy.URL == "" {
		cfg.Proxy.URL = DefaultProxyURL
	}
	if cfg.Proxy.TLS.MinVersion == "" {
		cfg.Proxy.TLS.MinVersion = DefaultTLSMinVersion
	}

	// Request defaults
	if cfg.Request.Model == "" {
		cfg.Request.Model = DefaultModel
	}
	if cfg.Request.Message == "" {
		cfg.Request.Message = DefaultMessage
	}

	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	}

	applyCostsDefaults(cfg)

	if len(cfg.Tokens.Models) == 0 {
		cfg.Tokens.Models = map[string]float64{
			"gpt-3.5-turbo": 4.0,
			"gpt-4":         4.0,
			"default":       DefaultCharsPerToken,
		}
	}

	// Evidence defaults
	if cfg.Evidence.Path == "" {
		cfg.Evidence.Path = DefaultEvidencePath
	}
	if cfg.Evidence.MaxFieldLength == 0 {
		cfg.Evidence.MaxFieldLength = DefaultEvidenceMaxFieldLength
	}
	if cfg.Evidence.BusyTimeout == 0 {
		cfg.Evidence.BusyTimeout = DefaultEvidenceBusyTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if len(cfg.Telemetry.Metrics.TokenCountBuckets) == 0 {
		cfg.Telemetry.Metrics.TokenCountBuckets = append([]float64(nil), DefaultTokenCountBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}

// applyCostsDefaults installs the built-in pricing table when the
// configuration carries none. A configured table replaces it entirely.
func applyCostsDefaults(cfg *Config) {
	if len(cfg.Costs.Pricing) > 0 {
		return
	}
	cfg.Costs.Pricing = map[string]map[string]ModelPricingConfig{
		"openai": {
			"gpt-3.5-turbo": {Prompt: 0.0005, Completion: 0.0015},
			"gpt-4":         {Prompt: 0.03, Completion: 0.06},
			"gpt-4-turbo":   {Prompt: 0.01, Completion: 0.03},
			"gpt-4o":        {Prompt: 0.0025, Completion: 0.01, CachedPrompt: 0.00125},
			"gpt-4o-mini":   {Prompt: 0.00015, Completion: 0.0006, CachedPrompt: 0.000075},
		},
		"default": {
			"default": {Prompt: 0.001, Completion: 0.002},
		},
	}
}

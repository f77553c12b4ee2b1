package config

import (
	"regexp"
	"time"
)

// secretRefPattern matches a whole-value ${secret:name} reference.
var secretRefPattern = regexp.MustCompile(`^\$\{secret:[^}]+\}$`)

// Config represents the complete Courier configuration.
// It is typically loaded from a YAML file and may be overridden by
// environment variables and command-line flags.
type Config struct {
	// Client configures the upstream OpenAI-compatible API.
	Client ClientConfig `yaml:"client"`

	// Proxy configures the forward proxy outbound traffic goes through.
	Proxy ProxyConfig `yaml:"proxy"`

	// Request holds the chat completion sent when none is given explicitly.
	Request RequestConfig `yaml:"request"`

	// Secrets configures where ${secret:name} references are resolved from.
	Secrets SecretsConfig `yaml:"secrets"`

	// Costs contains the pricing table used for cost estimates.
	Costs CostsConfig `yaml:"costs"`

	// Tokens configures token estimation for responses without usage.
	Tokens TokensConfig `yaml:"tokens"`

	// Evidence configures the local record of chat exchanges.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains logging, metrics, and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ClientConfig configures the upstream chat completion API.
type ClientConfig struct {
	// Name identifies the provider in logs and metrics.
	// Default: "openai"
	Name string `yaml:"name"`

	// BaseURL is the API base URL, including the version path.
	// Plain http lets an intercepting proxy read and upgrade the traffic.
	// Default: "http://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a Bearer token when set.
	// Supports ${secret:name} references.
	APIKey string `yaml:"api_key"`

	// Timeout bounds each attempt, including reading the response body.
	// Retries get a fresh timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after the first attempt.
	// Default: 0
	MaxRetries int `yaml:"max_retries"`

	// MaxIdleConns is the transport's idle connection pool size.
	// Default: 10
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost limits idle connections per upstream host.
	// Default: 2
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout closes idle connections after this duration.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// ProxyConfig configures the forward proxy.
type ProxyConfig struct {
	// Disabled sends requests directly to the upstream.
	// Default: false
	Disabled bool `yaml:"disabled"`

	// URL is the proxy address. Schemes: http, https, socks5.
	// Default: "http://localhost:8080"
	URL string `yaml:"url"`

	// NoProxy lists hosts that bypass the proxy.
	NoProxy []string `yaml:"no_proxy"`

	// TLS configures trust for HTTPS upstreams reached through the proxy.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains client-side TLS settings.
type TLSConfig struct {
	// CACertFile is a PEM bundle with the proxy's interception CA.
	// It is added to the system roots.
	CACertFile string `yaml:"ca_cert_file"`

	// InsecureSkipVerify disables server certificate verification.
	// Default: false
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// MinVersion is the minimum TLS version.
	// Options: "1.2", "1.3"
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// ServerName overrides the SNI server name.
	ServerName string `yaml:"server_name"`
}

// RequestConfig describes the default chat completion.
type RequestConfig struct {
	// Model is the model identifier.
	// Default: "gpt-3.5-turbo"
	Model string `yaml:"model"`

	// Message is the user message.
	// Default: "Hello, you are amazing."
	Message string `yaml:"message"`

	// System is an optional system prompt sent before the user message.
	System string `yaml:"system"`

	// Temperature controls sampling randomness (0.0 to 2.0).
	// Nil leaves it to the upstream.
	Temperature *float64 `yaml:"temperature"`

	// MaxTokens limits the completion length. Zero leaves it to the upstream.
	MaxTokens int `yaml:"max_tokens"`

	// Stream requests a server-sent events response.
	Stream bool `yaml:"stream"`
}

// SecretsConfig configures secret resolution.
type SecretsConfig struct {
	// EnvPrefix is prepended to secret names looked up in the environment.
	// Default: "" (secret "openai-api-key" reads OPENAI_API_KEY)
	EnvPrefix string `yaml:"env_prefix"`

	// Dir is a directory of secret files, one secret per file.
	Dir string `yaml:"dir"`

	// CacheTTL is how long resolved secrets are cached.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// CostsConfig contains pricing for cost estimation.
type CostsConfig struct {
	// Pricing maps provider -> model -> pricing. The "default" provider and
	// "default" model act as fallbacks.
	Pricing map[string]map[string]ModelPricingConfig `yaml:"pricing"`
}

// ModelPricingConfig is the per-1K-token price of a model in USD.
type ModelPricingConfig struct {
	// Prompt is the cost per 1K prompt tokens.
	Prompt float64 `yaml:"prompt"`

	// Completion is the cost per 1K completion tokens.
	Completion float64 `yaml:"completion"`

	// CachedPrompt is the cost per 1K cached prompt tokens.
	CachedPrompt float64 `yaml:"cached_prompt"`
}

// TokensConfig contains token estimation settings.
type TokensConfig struct {
	// Models maps a model name or prefix to its characters-per-token ratio.
	// The "default" entry applies to unknown models.
	Models map[string]float64 `yaml:"models"`
}

// EvidenceConfig configures the exchange log.
type EvidenceConfig struct {
	// Enabled records every chat exchange.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "courier-evidence.db"
	Path string `yaml:"path"`

	// StoreBodies keeps the full request and response bodies.
	// Default: false (only hashes are kept)
	StoreBodies bool `yaml:"store_bodies"`

	// MaxFieldLength truncates prompts and reply text.
	// Default: 500
	MaxFieldLength int `yaml:"max_field_length"`

	// RetentionDays is the age after which records are pruned, both after
	// each recorded exchange and by "evidence prune". 0 keeps records forever.
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of records kept. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// BusyTimeout is how long a write waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "warn"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPatterns are applied in addition to the built-in API key and
	// bearer token patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Namespace is the metric name prefix.
	// Default: "courier"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "client"
	Subsystem string `yaml:"subsystem"`

	// Textfile, when set, receives the metrics in Prometheus text format
	// after each run (node_exporter textfile collector layout).
	Textfile string `yaml:"textfile"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// TokenCountBuckets defines histogram buckets for token counts.
	// Default: [10, 50, 100, 500, 1000, 5000, 10000]
	TokenCountBuckets []float64 `yaml:"token_count_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "courier"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// ProxyEnabled reports whether outbound traffic goes through the proxy.
func (c *Config) ProxyEnabled() bool {
	return !c.Proxy.Disabled && c.Proxy.URL != ""
}

// Redacted returns a copy of the configuration safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.Client.APIKey = maskSecret(c.Client.APIKey)
	return &out
}

// maskSecret keeps secret references readable and hides literal values.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case secretRefPattern.MatchString(s):
		return s
	case len(s) <= 8:
		return "****"
	default:
		return s[:3] + "****" + s[len(s)-4:]
	}
}

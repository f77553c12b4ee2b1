package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{}
	ApplyDefaults(&cfg)
	cfg.Client.APIKey = "test-key"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithBaseURL sets the upstream base URL.
func (b *ConfigBuilder) WithBaseURL(u string) *ConfigBuilder {
	b.cfg.Client.BaseURL = u
	return b
}

// WithTimeout sets the client timeout.
func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Client.Timeout = d
	return b
}

// WithProxyURL sets the proxy URL.
func (b *ConfigBuilder) WithProxyURL(u string) *ConfigBuilder {
	b.cfg.Proxy.URL = u
	return b
}

// WithoutProxy disables the proxy.
func (b *ConfigBuilder) WithoutProxy() *ConfigBuilder {
	b.cfg.Proxy.Disabled = true
	return b
}

// WithModel sets the request model.
func (b *ConfigBuilder) WithModel(model string) *ConfigBuilder {
	b.cfg.Request.Model = model
	return b
}

// WithLogging sets the logging level and format.
func (b *ConfigBuilder) WithLogging(level, format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// MinimalConfig returns a minimal valid configuration.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether any error refers to the given field.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateClient(&cfg.Client)...)
	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateRequest(&cfg.Request)...)
	errs = append(errs, validateSecrets(&cfg.Secrets)...)
	errs = append(errs, validateCosts(&cfg.Costs)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateClient validates the upstream API configuration.
func validateClient(cfg *ClientConfig) []FieldError {
	var errs []FieldError

	if cfg.Name == "" {
		errs = append(errs, FieldError{
			Field:   "client.name",
			Message: "name is required",
		})
	}

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "client.base_url",
			Message: "base URL is required",
		})
	} else if msg := checkURL(cfg.BaseURL, "http", "https"); msg != "" {
		errs = append(errs, FieldError{
			Field:   "client.base_url",
			Message: msg,
		})
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "client.timeout",
			Message: "timeout must be positive",
		})
	}

	if cfg.MaxRetries < 0 || cfg.MaxRetries > MaxClientRetries {
		errs = append(errs, FieldError{
			Field:   "client.max_retries",
			Message: fmt.Sprintf("max retries must be between 0 and %d", MaxClientRetries),
		})
	}

	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "client.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}
	if cfg.MaxIdleConnsPerHost < 0 {
		errs = append(errs, FieldError{
			Field:   "client.max_idle_conns_per_host",
			Message: "max idle connections per host must be non-negative",
		})
	}
	if cfg.IdleConnTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "client.idle_conn_timeout",
			Message: "idle connection timeout must be non-negative",
		})
	}

	return errs
}

// validateProxy validates proxy configuration. The URL is only checked
// when the proxy is in use.
func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if !cfg.Disabled && cfg.URL != "" {
		if msg := checkURL(cfg.URL, "http", "https", "socks5"); msg != "" {
			errs = append(errs, FieldError{
				Field:   "proxy.url",
				Message: msg,
			})
		}
	}

	for i, host := range cfg.NoProxy {
		if strings.TrimSpace(host) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("proxy.no_proxy[%d]", i),
				Message: "host must not be empty",
			})
		}
	}

	if v := cfg.TLS.MinVersion; v != "" && v != "1.2" && v != "1.3" {
		errs = append(errs, FieldError{
			Field:   "proxy.tls.min_version",
			Message: fmt.Sprintf("invalid TLS version %q: must be '1.2' or '1.3'", v),
		})
	}

	return errs
}

// validateRequest validates the default chat completion.
func validateRequest(cfg *RequestConfig) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, FieldError{
			Field:   "request.model",
			Message: "model is required",
		})
	}
	if strings.TrimSpace(cfg.Message) == "" {
		errs = append(errs, FieldError{
			Field:   "request.message",
			Message: "message is required",
		})
	}
	if cfg.Temperature != nil && (*cfg.Temperature < 0 || *cfg.Temperature > 2) {
		errs = append(errs, FieldError{
			Field:   "request.temperature",
			Message: "temperature must be between 0.0 and 2.0",
		})
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "request.max_tokens",
			Message: "max tokens must be non-negative",
		})
	}

	return errs
}

// validateSecrets validates secret resolution settings.
func validateSecrets(cfg *SecretsConfig) []FieldError {
	var errs []FieldError

	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "secrets.cache_ttl",
			Message: "cache TTL must be non-negative",
		})
	}

	return errs
}

// validateCosts validates the pricing table.
func validateCosts(cfg *CostsConfig) []FieldError {
	var errs []FieldError

	providers := make([]string, 0, len(cfg.Pricing))
	for p := range cfg.Pricing {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	for _, provider := range providers {
		models := make([]string, 0, len(cfg.Pricing[provider]))
		for m := range cfg.Pricing[provider] {
			models = append(models, m)
		}
		sort.Strings(models)

		for _, model := range models {
			pricing := cfg.Pricing[provider][model]
			if pricing.Prompt < 0 || pricing.Completion < 0 || pricing.CachedPrompt < 0 {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("costs.pricing.%s.%s", provider, model),
					Message: "prices must be non-negative",
				})
			}
		}
	}

	return errs
}

func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	models := make([]string, 0, len(cfg.Models))
	for m := range cfg.Models {
		models = append(models, m)
	}
	sort.Strings(models)

	for _, model := range models {
		if cfg.Models[model] <= 0 {
			errs = append(errs, FieldError{
				Field:   "tokens.models." + model,
				Message: "characters per token must be positive",
			})
		}
	}

	return errs
}

// validateEvidence validates the exchange log settings.
func validateEvidence(cfg *EvidenceConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "evidence.path",
			Message: "database path is required when evidence is enabled",
		})
	}
	if cfg.MaxFieldLength < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.max_field_length",
			Message: "must be non-negative",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.retention_days",
			Message: "must be non-negative",
		})
	}
	if cfg.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.max_records",
			Message: "must be non-negative",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.busy_timeout",
			Message: "must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if !sortedPositive(cfg.Metrics.RequestDurationBuckets) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.request_duration_buckets",
			Message: "buckets must be positive and strictly increasing",
		})
	}
	if !sortedPositive(cfg.Metrics.TokenCountBuckets) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.token_count_buckets",
			Message: "buckets must be positive and strictly increasing",
		})
	}

	// Validate tracing configuration
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Exporter != "otlp" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("unsupported exporter %q: must be 'otlp'", cfg.Tracing.Exporter),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}

// checkURL returns an empty string when raw is an absolute URL with one of
// the allowed schemes, or a description of what is wrong.
func checkURL(raw string, schemes ...string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Host == "" {
		return fmt.Sprintf("URL %q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return ""
		}
	}
	return fmt.Sprintf("URL scheme %q is not supported: must be one of %s", u.Scheme, strings.Join(schemes, ", "))
}

func sortedPositive(buckets []float64) bool {
	for i, b := range buckets {
		if b <= 0 {
			return false
		}
		if i > 0 && b <= buckets[i-1] {
			return false
		}
	}
	return true
}

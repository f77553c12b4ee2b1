package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Client.BaseURL != DefaultBaseURL {
					t.Errorf("expected base URL %q, got %q", DefaultBaseURL, cfg.Client.BaseURL)
				}
				if cfg.Client.Timeout != DefaultClientTimeout {
					t.Errorf("expected timeout %v, got %v", DefaultClientTimeout, cfg.Client.Timeout)
				}
				if cfg.Client.MaxRetries != 0 {
					t.Errorf("expected retries disabled, got %d", cfg.Client.MaxRetries)
				}
				if cfg.Proxy.URL != DefaultProxyURL {
					t.Errorf("expected proxy URL %q, got %q", DefaultProxyURL, cfg.Proxy.URL)
				}
				if !cfg.ProxyEnabled() {
					t.Error("expected proxy to be enabled by default")
				}
				if cfg.Request.Model != DefaultModel {
					t.Errorf("expected model %q, got %q", DefaultModel, cfg.Request.Model)
				}
				if cfg.Request.Message != DefaultMessage {
					t.Errorf("expected message %q, got %q", DefaultMessage, cfg.Request.Message)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Tracing.Enabled {
					t.Error("expected tracing to be disabled by default")
				}
				if _, ok := cfg.Costs.Pricing["openai"]["gpt-3.5-turbo"]; !ok {
					t.Error("expected built-in pricing for gpt-3.5-turbo")
				}
				if cfg.Tokens.Models["default"] != DefaultCharsPerToken {
					t.Errorf("expected default chars per token, got %v", cfg.Tokens.Models["default"])
				}
				if cfg.Evidence.Enabled {
					t.Error("expected evidence to be disabled by default")
				}
				if cfg.Evidence.Path != DefaultEvidencePath {
					t.Errorf("expected evidence path %q, got %q", DefaultEvidencePath, cfg.Evidence.Path)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Client: ClientConfig{
					BaseURL:    "http://localhost:11434/v1",
					Timeout:    5 * time.Second,
					MaxRetries: 2,
				},
				Proxy:   ProxyConfig{URL: "http://127.0.0.1:9090"},
				Request: RequestConfig{Model: "llama3"},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Client.BaseURL != "http://localhost:11434/v1" {
					t.Errorf("base URL overwritten: %q", cfg.Client.BaseURL)
				}
				if cfg.Client.Timeout != 5*time.Second {
					t.Errorf("timeout overwritten: %v", cfg.Client.Timeout)
				}
				if cfg.Client.MaxRetries != 2 {
					t.Errorf("max retries overwritten: %d", cfg.Client.MaxRetries)
				}
				if cfg.Proxy.URL != "http://127.0.0.1:9090" {
					t.Errorf("proxy URL overwritten: %q", cfg.Proxy.URL)
				}
				if cfg.Request.Model != "llama3" {
					t.Errorf("model overwritten: %q", cfg.Request.Model)
				}
			},
		},
		{
			name: "configured pricing replaces built-in table",
			input: Config{
				Costs: CostsConfig{Pricing: map[string]map[string]ModelPricingConfig{
					"local": {"llama3": {Prompt: 0, Completion: 0}},
				}},
			},
			check: func(t *testing.T, cfg *Config) {
				if _, ok := cfg.Costs.Pricing["openai"]; ok {
					t.Error("built-in pricing should not be merged into a configured table")
				}
				if _, ok := cfg.Costs.Pricing["local"]["llama3"]; !ok {
					t.Error("configured pricing lost")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := Default()
	before := *cfg
	ApplyDefaults(cfg)

	if cfg.Client != before.Client {
		t.Errorf("client config changed on second pass: %+v != %+v", cfg.Client, before.Client)
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) != len(DefaultRequestDurationBuckets) {
		t.Errorf("buckets changed on second pass: %v", cfg.Telemetry.Metrics.RequestDurationBuckets)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

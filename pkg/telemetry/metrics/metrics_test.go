package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/courier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Namespace:              "test",
		Subsystem:              "metrics",
		RequestDurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
		TokenCountBuckets:      []float64{10, 100, 1000},
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{}
	collector := NewCollector(cfg, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a private registry")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("namespace = %q, want %q", cfg.Namespace, config.DefaultMetricsNamespace)
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		t.Error("expected default duration buckets")
	}

	collector.ObserveRequest("openai", "gpt-3.5-turbo", "success", time.Second)
	if n := testutil.CollectAndCount(collector.requestMetrics.requestsTotal, "courier_client_requests_total"); n != 1 {
		t.Errorf("expected 1 series under default name, got %d", n)
	}
}

func TestCollector_ObserveRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name     string
		provider string
		model    string
		status   string
		duration time.Duration
	}{
		{"success request", "openai", "gpt-3.5-turbo", "success", 800 * time.Millisecond},
		{"error request", "openai", "gpt-3.5-turbo", "error", 50 * time.Millisecond},
		{"other model", "openai", "gpt-4o", "success", 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.ObserveRequest(tt.provider, tt.model, tt.status, tt.duration)

			count := testutil.ToFloat64(collector.requestMetrics.requestsTotal.WithLabelValues(tt.provider, tt.model, tt.status))
			if count != 1 {
				t.Errorf("expected request counter = 1, got %f", count)
			}
		})
	}

	if n := testutil.CollectAndCount(collector.requestMetrics.requestDuration); n != 2 {
		t.Errorf("expected 2 duration series, got %d", n)
	}
}

func TestCollector_ProviderMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	t.Run("health", func(t *testing.T) {
		collector.UpdateProviderHealth("openai", true)
		if v := testutil.ToFloat64(collector.providerMetrics.health.WithLabelValues("openai")); v != 1.0 {
			t.Errorf("expected health=1, got %f", v)
		}
		collector.UpdateProviderHealth("openai", false)
		if v := testutil.ToFloat64(collector.providerMetrics.health.WithLabelValues("openai")); v != 0.0 {
			t.Errorf("expected health=0, got %f", v)
		}
	})

	t.Run("errors", func(t *testing.T) {
		collector.ObserveError("openai", "proxy")
		collector.ObserveError("openai", "proxy")
		collector.ObserveError("openai", "auth")

		if v := testutil.ToFloat64(collector.providerMetrics.errors.WithLabelValues("openai", "proxy")); v != 2 {
			t.Errorf("expected 2 proxy errors, got %f", v)
		}
		if v := testutil.ToFloat64(collector.providerMetrics.errors.WithLabelValues("openai", "auth")); v != 1 {
			t.Errorf("expected 1 auth error, got %f", v)
		}
	})

	t.Run("retries", func(t *testing.T) {
		collector.ObserveRetry("openai")
		if v := testutil.ToFloat64(collector.providerMetrics.retries.WithLabelValues("openai")); v != 1 {
			t.Errorf("expected 1 retry, got %f", v)
		}
	})
}

func TestCollector_TokensAndSize(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveTokens("openai", "gpt-3.5-turbo", 14, 0)
	collector.ObserveSize("openai", "gpt-3.5-turbo", "response", 0)
	collector.ObserveSize("openai", "gpt-3.5-turbo", "request", 120)

	// Zero values are skipped, so only the prompt series exists
	if n := testutil.CollectAndCount(collector.requestMetrics.tokens); n != 1 {
		t.Errorf("expected 1 token series, got %d", n)
	}
	if n := testutil.CollectAndCount(collector.requestMetrics.sizeBytes); n != 1 {
		t.Errorf("expected 1 size series, got %d", n)
	}
}

func TestCollector_RecordCost(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCost("openai", "gpt-3.5-turbo", 0.000031)
	collector.RecordCost("openai", "gpt-3.5-turbo", 0)

	got := testutil.ToFloat64(collector.costMetrics.costTotal.WithLabelValues("openai", "gpt-3.5-turbo"))
	if got != 0.000031 {
		t.Errorf("expected cost 0.000031, got %f", got)
	}
}

func TestCollector_WriteTo(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.ObserveRequest("openai", "gpt-3.5-turbo", "success", time.Second)

	var buf bytes.Buffer
	n, err := collector.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, buffer has %d", n, buf.Len())
	}

	want := `test_metrics_requests_total{model="gpt-3.5-turbo",provider="openai",status="success"} 1`
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output missing %q:\n%s", want, buf.String())
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.ObserveError("openai", "timeout")

	if err := collector.WriteTextfile(""); err != nil {
		t.Errorf("empty path should be a no-op, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "courier.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `test_metrics_provider_errors_total{error_type="timeout",provider="openai"} 1`) {
		t.Errorf("unexpected textfile contents:\n%s", data)
	}
}

func TestCollector_WriteTextfile_BadDir(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	err := collector.WriteTextfile(filepath.Join(t.TempDir(), "missing", "courier.prom"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

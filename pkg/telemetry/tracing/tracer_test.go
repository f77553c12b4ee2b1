package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"mercator-hq/courier/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// restoreGlobals puts the global provider and propagator back after a test
// that installs its own.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func enabledConfig() *config.TracingConfig {
	return &config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		SampleRatio: 1.0,
		Exporter:    "otlp",
		Endpoint:    "localhost:4317",
		ServiceName: "courier-test",
		OTLP: config.OTLPConfig{
			Insecure: true,
			Timeout:  time.Second,
		},
	}
}

// TestNew tests the creation of a new tracer
func TestNew(t *testing.T) {
	restoreGlobals(t)

	tests := []struct {
		name    string
		config  *config.TracingConfig
		wantErr bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:    "disabled tracing",
			config:  &config.TracingConfig{Enabled: false, ServiceName: "courier-test"},
			wantErr: false,
		},
		{
			name:    "enabled otlp",
			config:  enabledConfig(),
			wantErr: false,
		},
		{
			name: "unsupported exporter",
			config: func() *config.TracingConfig {
				c := enabledConfig()
				c.Exporter = "jaeger"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid ratio",
			config: func() *config.TracingConfig {
				c := enabledConfig()
				c.Sampler = SamplerRatio
				c.SampleRatio = 2
				return c
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.config.Enabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.config.Enabled)
			}
		})
	}
}

func TestTracer_DisabledProducesNoopSpans(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("disabled tracer should not produce a valid span context")
	}
	if TraceID(ctx) != "" {
		t.Errorf("TraceID() = %q, want empty", TraceID(ctx))
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on disabled tracer = %v", err)
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	restoreGlobals(t)

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(enabledConfig(), WithExporter(exporter), WithSyncExport(), WithServiceVersion("1.2.3"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := StartClientSpan(context.Background(), "chat.completions",
		attribute.String(AttrProvider, "openai"))
	SetTokenAttributes(span, 6, 9, 15)
	SetStatus(span, errors.New("upstream failed"))

	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Error("expected trace and span IDs in context")
	}
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 exported span, got %d", len(spans))
	}

	got := spans[0]
	if got.Name != "chat.completions" {
		t.Errorf("span name = %q", got.Name)
	}
	if got.SpanKind != trace.SpanKindClient {
		t.Errorf("span kind = %v, want client", got.SpanKind)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want error", got.Status.Code)
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range got.Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrProvider].AsString() != "openai" {
		t.Errorf("provider attribute = %v", attrs[AttrProvider])
	}
	if attrs[AttrTokensTotal].AsInt64() != 15 {
		t.Errorf("total tokens attribute = %v", attrs[AttrTokensTotal])
	}

	var version string
	for _, kv := range got.Resource.Attributes() {
		if kv.Key == "service.version" {
			version = kv.Value.AsString()
		}
	}
	if version != "1.2.3" {
		t.Errorf("service.version = %q, want 1.2.3", version)
	}
}

func TestSetStatus_OK(t *testing.T) {
	restoreGlobals(t)

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(enabledConfig(), WithExporter(exporter), WithSyncExport())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	_, span := tracer.Start(context.Background(), "ok")
	SetStatus(span, nil)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Status.Code != codes.Ok {
		t.Fatalf("expected one span with OK status, got %+v", spans)
	}
}

func TestInjectExtract(t *testing.T) {
	restoreGlobals(t)

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(enabledConfig(), WithExporter(exporter), WithSyncExport())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Start(context.Background(), "outbound")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)

	traceparent := headers.Get("traceparent")
	if traceparent == "" {
		t.Fatal("expected traceparent header")
	}

	extracted := Extract(context.Background(), headers)
	if TraceID(extracted) != TraceID(ctx) {
		t.Errorf("extracted trace ID %q, want %q", TraceID(extracted), TraceID(ctx))
	}
}

func TestInject_NoSpan(t *testing.T) {
	restoreGlobals(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	headers := http.Header{}
	Inject(context.Background(), headers)
	if headers.Get("traceparent") != "" {
		t.Errorf("expected no traceparent without a span, got %q", headers.Get("traceparent"))
	}
}

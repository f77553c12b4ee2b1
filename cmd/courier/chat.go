package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/costs"
	"mercator-hq/courier/pkg/evidence/recorder"
	"mercator-hq/courier/pkg/evidence/retention"
	"mercator-hq/courier/pkg/evidence/storage"
	"mercator-hq/courier/pkg/providers"
	"mercator-hq/courier/pkg/providers/openai"
	sectls "mercator-hq/courier/pkg/security/tls"
	"mercator-hq/courier/pkg/security/secrets"
	"mercator-hq/courier/pkg/telemetry/logging"
	"mercator-hq/courier/pkg/telemetry/metrics"
	"mercator-hq/courier/pkg/telemetry/tracing"
	"mercator-hq/courier/pkg/tokens"
)

// shutdownTimeout bounds span export after the request finished.
const shutdownTimeout = 5 * time.Second

// chatOptions holds the chat flags.
type chatOptions struct {
	connectionOptions

	model       string
	system      string
	temperature float64
	maxTokens   int
	stream      bool
	output      string
	showCost    bool
	metricsFile string
	record      bool
	evidenceDB  string
}

func addChatFlags(cmd *cobra.Command, o *chatOptions) {
	fs := cmd.Flags()
	addConnectionFlags(fs, &o.connectionOptions)

	fs.StringVarP(&o.model, "model", "m", "", "model (default gpt-3.5-turbo)")
	fs.StringVar(&o.system, "system", "", "system prompt sent before the message")
	fs.Float64Var(&o.temperature, "temperature", 0, "sampling temperature (0.0 to 2.0)")
	fs.IntVar(&o.maxTokens, "max-tokens", 0, "maximum completion tokens")
	fs.BoolVar(&o.stream, "stream", false, "stream the reply as it is generated")
	fs.StringVarP(&o.output, "output", "o", string(cli.FormatRaw), "output format: raw, json, text")
	fs.BoolVar(&o.showCost, "show-cost", false, "print the estimated cost to stderr")
	fs.StringVar(&o.metricsFile, "metrics-file", "", `write Prometheus metrics to this file ("-" for stderr)`)
	fs.BoolVar(&o.record, "record", false, "record the exchange in the evidence store")
	fs.StringVar(&o.evidenceDB, "evidence-db", "", "evidence database path (implies --record)")
}

func newChatCmd(g *globalOptions) *cobra.Command {
	o := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Send one chat completion and print the response",
		Long: `Send one chat completion through the proxy and print the response.

The message defaults to "Hello, you are amazing." and is taken from the
arguments when given. By default the upstream JSON is printed unchanged.

Examples:
  # Default message, default model, default proxy
  courier chat

  # Through a different proxy, trusting its CA, over HTTPS
  courier chat --base-url https://api.openai.com/v1 \
    --proxy http://127.0.0.1:8888 --proxy-ca ~/.mitmproxy/mitmproxy-ca-cert.pem

  # Print only the reply and what it cost
  courier chat "Tell me a joke" --output text --show-cost

  # Keep an audit record of the exchange
  courier chat --record --evidence-db ./evidence.db`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, args, g, o)
		},
	}

	addChatFlags(cmd, o)
	return cmd
}

// apply copies the flags that were set onto cfg.
func (o *chatOptions) apply(fs *pflag.FlagSet, cfg *config.Config) {
	o.connectionOptions.apply(fs, cfg)

	if fs.Changed("model") {
		cfg.Request.Model = o.model
	}
	if fs.Changed("system") {
		cfg.Request.System = o.system
	}
	if fs.Changed("temperature") {
		temp := o.temperature
		cfg.Request.Temperature = &temp
	}
	if fs.Changed("max-tokens") {
		cfg.Request.MaxTokens = o.maxTokens
	}
	if fs.Changed("stream") {
		cfg.Request.Stream = o.stream
	}
	if fs.Changed("metrics-file") {
		cfg.Telemetry.Metrics.Textfile = o.metricsFile
	}
	if fs.Changed("record") {
		cfg.Evidence.Enabled = o.record
	}
	if fs.Changed("evidence-db") {
		cfg.Evidence.Path = o.evidenceDB
		cfg.Evidence.Enabled = true
	}
}

func runChat(cmd *cobra.Command, args []string, g *globalOptions, o *chatOptions) error {
	cfg := g.cfg
	o.apply(cmd.Flags(), cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	format, err := cli.ParseOutputFormat(o.output)
	if err != nil {
		return err
	}

	message := cfg.Request.Message
	if len(args) > 0 {
		message = strings.Join(args, " ")
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewCommandError("chat", err)
	}
	defer shutdownTracer(tracer)

	ctx, span := tracer.Start(ctx, "courier.chat")
	defer span.End()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	defer writeMetrics(collector, cfg.Telemetry.Metrics.Textfile, cmd.ErrOrStderr())

	provider, err := newProvider(ctx, cfg, collector)
	if err != nil {
		return cli.NewCommandError("chat", err)
	}
	defer provider.Close()

	req := buildRequest(cfg, message)

	slog.InfoContext(ctx, "sending chat completion",
		"base_url", cfg.Client.BaseURL,
		"proxy", proxyLabel(cfg),
		"model", req.Model,
		"stream", req.Stream,
	)

	requestID := uuid.NewString()
	ctx = providers.WithRequestID(ctx, requestID)

	start := time.Now()
	var resp *providers.CompletionResponse
	if req.Stream {
		resp, err = streamChat(ctx, provider, req, cmd.OutOrStdout())
	} else {
		resp, err = provider.SendCompletion(ctx, req)
	}
	end := time.Now()
	collector.UpdateProviderHealth(provider.GetName(), provider.IsHealthy())
	tracing.SetStatus(span, err)

	ex := &recorder.Exchange{
		Provider:  provider.GetName(),
		BaseURL:   cfg.Client.BaseURL,
		Proxy:     proxyLabel(cfg),
		APIKey:    cfg.Client.APIKey,
		RequestID: requestID,
		Request:   req,
		Response:  resp,
		Err:       err,
		Start:     start,
		End:       end,
	}
	if cfg.Evidence.Enabled {
		defer recordExchange(ctx, cfg, ex)
	}

	if err != nil {
		return cli.NewCommandError("chat", err)
	}

	if resp.Usage.TotalTokens == 0 {
		resp.Usage = tokens.NewSimpleEstimator(&cfg.Tokens).EstimateUsage(req, resp.Content)
		ex.TokensEstimated = true
		slog.DebugContext(ctx, "upstream reported no usage, estimated locally",
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		)
	}

	if !req.Stream {
		if err := printResponse(cmd.OutOrStdout(), format, resp); err != nil {
			return cli.NewCommandError("chat", err)
		}
	}

	if o.showCost || cfg.Evidence.Enabled {
		calculator := costs.NewCalculator(&cfg.Costs)
		estimate, err := calculator.CalculateProviderResponseCost(resp, provider.GetName())
		if err != nil {
			slog.WarnContext(ctx, "cost estimate unavailable", "error", err)
		} else {
			ex.Cost = estimate
			collector.RecordCost(provider.GetName(), resp.Model, estimate.TotalCost)
			if o.showCost {
				fmt.Fprintln(cmd.ErrOrStderr(), estimate)
			}
		}
	}

	return nil
}

// recordExchange stores ex in the evidence store. Failures are logged and
// never change the command's outcome.
func recordExchange(ctx context.Context, cfg *config.Config, ex *recorder.Exchange) {
	store, err := storage.Open(cfg.Evidence)
	if err != nil {
		slog.WarnContext(ctx, "evidence store unavailable", "path", cfg.Evidence.Path, "error", err)
		return
	}
	defer store.Close()

	rec := recorder.NewRecorder(store, recorder.ConfigFromCourier(cfg.Evidence))
	record, err := rec.Record(ctx, ex)
	if err != nil {
		slog.WarnContext(ctx, "failed to record exchange", "error", err)
		return
	}

	slog.InfoContext(ctx, "exchange recorded", "record_id", record.ID, "path", cfg.Evidence.Path)

	if cfg.Evidence.RetentionDays > 0 || cfg.Evidence.MaxRecords > 0 {
		pruner := retention.NewPruner(store, retention.ConfigFromCourier(cfg.Evidence))
		if _, err := pruner.Prune(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "evidence pruning failed", "error", err)
		}
	}
}

// newProvider resolves the API key, builds the proxy TLS settings and
// creates the OpenAI provider.
func newProvider(ctx context.Context, cfg *config.Config, observer providers.Observer) (*openai.Provider, error) {
	if secrets.HasReferences(cfg.Client.APIKey) {
		manager, err := secrets.NewManagerFromConfig(cfg.Secrets)
		if err != nil {
			return nil, err
		}
		key, err := manager.ResolveReferences(ctx, cfg.Client.APIKey)
		if err != nil {
			return nil, err
		}
		cfg.Client.APIKey = key
	}

	tlsConfig, err := sectls.FromConfig(cfg.Proxy.TLS).ToTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("proxy TLS: %w", err)
	}

	return openai.NewProvider(
		providers.ConfigFromCourier(cfg, tlsConfig, userAgent()),
		openai.WithObserver(observer),
	)
}

// buildRequest assembles the completion request from the configuration.
func buildRequest(cfg *config.Config, message string) *providers.CompletionRequest {
	req := &providers.CompletionRequest{
		Model:       cfg.Request.Model,
		Temperature: cfg.Request.Temperature,
		MaxTokens:   cfg.Request.MaxTokens,
		Stream:      cfg.Request.Stream,
	}
	if cfg.Request.System != "" {
		req.Messages = append(req.Messages, providers.Message{
			Role:    providers.RoleSystem,
			Content: cfg.Request.System,
		})
	}
	req.Messages = append(req.Messages, providers.Message{
		Role:    providers.RoleUser,
		Content: message,
	})
	return req
}

// streamChat prints deltas as they arrive and returns the assembled response.
func streamChat(ctx context.Context, provider *openai.Provider, req *providers.CompletionRequest, w io.Writer) (*providers.CompletionResponse, error) {
	chunks, err := provider.StreamCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	printer := cli.NewStreamPrinter(w)
	defer printer.Finish()

	resp := &providers.CompletionResponse{
		Model:     req.Model,
		RequestID: logging.GetRequestID(ctx),
	}
	var content strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, chunk.Error
		}
		if chunk.ID != "" {
			resp.ID = chunk.ID
		}
		if chunk.Model != "" {
			resp.Model = chunk.Model
		}
		if chunk.FinishReason != "" {
			resp.FinishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			resp.Usage = *chunk.Usage
		}
		content.WriteString(chunk.Delta)
		if err := printer.Write(chunk.Delta); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp.Content = content.String()
	return resp, nil
}

// printResponse writes resp in the requested format.
func printResponse(w io.Writer, format cli.OutputFormat, resp *providers.CompletionResponse) error {
	formatter := cli.NewFormatter(format)
	switch format {
	case cli.FormatRaw:
		return formatter.FormatTo(w, resp.Raw)
	case cli.FormatJSON:
		return formatter.FormatTo(w, resp)
	default:
		return formatter.FormatTo(w, resp.Content)
	}
}

// writeMetrics exports the collected metrics. "-" writes the text format
// to stderr.
func writeMetrics(collector *metrics.Collector, path string, stderr io.Writer) {
	switch path {
	case "":
	case "-":
		if _, err := collector.WriteTo(stderr); err != nil {
			slog.Warn("failed to write metrics", "error", err)
		}
	default:
		if err := collector.WriteTextfile(path); err != nil {
			slog.Warn("failed to write metrics", "path", path, "error", err)
		}
	}
}

func shutdownTracer(tracer *tracing.Tracer) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tracer.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("failed to flush traces", "error", err)
	}
}

// proxyLabel describes the proxy for logs with any password removed.
func proxyLabel(cfg *config.Config) string {
	if !cfg.ProxyEnabled() {
		return "direct"
	}
	u, err := url.Parse(cfg.Proxy.URL)
	if err != nil {
		return cfg.Proxy.URL
	}
	return u.Redacted()
}

func userAgent() string {
	return "courier/" + Version
}

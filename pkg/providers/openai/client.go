package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"mercator-hq/courier/pkg/providers"
	"mercator-hq/courier/pkg/telemetry/logging"
	"mercator-hq/courier/pkg/telemetry/tracing"
)

// Provider is the OpenAI chat completions adapter.
// It implements providers.Provider for any OpenAI-compatible API.
type Provider struct {
	*providers.HTTPProvider
}

// Option configures a Provider.
type Option func(*Provider)

// WithObserver reports request telemetry to o.
func WithObserver(o providers.Observer) Option {
	return func(p *Provider) {
		p.SetObserver(o)
	}
}

// WithRetryBaseDelay sets the backoff before the first retry.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(p *Provider) {
		p.SetRetryBaseDelay(d)
	}
}

// NewProvider creates a new OpenAI provider instance.
//
// The API key is optional: a local OpenAI-compatible server or an
// authenticating proxy may not need one.
func NewProvider(config providers.ProviderConfig, opts ...Option) (*Provider, error) {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.Type == "" {
		config.Type = "openai"
	}

	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required",
		}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	httpProvider, err := providers.NewHTTPProvider(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		HTTPProvider: httpProvider,
	}
	for _, opt := range opts {
		opt(p)
	}

	slog.Debug("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"proxy", config.ProxyURL,
		"max_retries", config.MaxRetries,
	)

	return p, nil
}

// SendCompletion sends a chat completion request. The response keeps the
// exact upstream body in Raw.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	name := p.GetName()
	observer := p.Observer()
	ctx = logging.WithModel(ctx, req.Model)
	start := time.Now()

	ctx, span := tracing.StartClientSpan(ctx, "chat.completions")
	defer span.End()
	tracing.SetProviderAttributes(span, name, req.Model)

	resp, err := p.sendCompletion(ctx, req)
	if err != nil {
		observer.ObserveRequest(name, req.Model, providers.StatusError, time.Since(start))
		tracing.SetStatus(span, err)
		return nil, err
	}

	observer.ObserveRequest(name, req.Model, providers.StatusSuccess, time.Since(start))
	observer.ObserveTokens(name, req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	observer.ObserveSize(name, req.Model, "response", len(resp.Raw))
	tracing.SetTokenAttributes(span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	tracing.SetStatus(span, nil)

	slog.DebugContext(ctx, "completion request succeeded",
		"response_id", resp.ID,
		"tokens", resp.Usage.TotalTokens,
		"duration", time.Since(start),
	)

	return resp, nil
}

func (p *Provider) sendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	openaiReq := transformRequest(req)
	openaiReq.Stream = false
	openaiReq.StreamOptions = nil

	body, err := json.Marshal(openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	p.Observer().ObserveSize(p.GetName(), req.Model, "request", len(body))

	httpResp, err := p.DoRequest(ctx, http.MethodPost, p.endpoint("/chat/completions"), body, p.headers(false))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &providers.ParseError{
			Provider: p.GetName(),
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	var openaiResp OpenAIResponse
	if err := json.Unmarshal(raw, &openaiResp); err != nil {
		return nil, &providers.ParseError{
			Provider:    p.GetName(),
			RawResponse: string(raw),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	resp, err := transformResponse(&openaiResp)
	if err != nil {
		return nil, &providers.ParseError{
			Provider:    p.GetName(),
			RawResponse: string(raw),
			Cause:       err,
		}
	}

	resp.Raw = raw
	resp.RequestID = httpResp.Request.Header.Get(providers.HeaderRequestID)

	return resp, nil
}

// StreamCompletion sends a streaming chat completion request.
// The channel closes after [DONE]; a failure arrives as a final chunk with
// Error set.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	name := p.GetName()
	observer := p.Observer()
	ctx = logging.WithModel(ctx, req.Model)
	start := time.Now()

	openaiReq := transformRequest(req)
	openaiReq.Stream = true
	openaiReq.StreamOptions = &OpenAIStreamOptions{IncludeUsage: true}

	body, err := json.Marshal(openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	observer.ObserveSize(name, req.Model, "request", len(body))

	httpResp, err := p.DoRequest(ctx, http.MethodPost, p.endpoint("/chat/completions"), body, p.headers(true))
	if err != nil {
		observer.ObserveRequest(name, req.Model, providers.StatusError, time.Since(start))
		return nil, err
	}

	stream := newStreamReader(name, httpResp.Body)

	chunks := make(chan *providers.StreamChunk, 100)

	go func() {
		defer close(chunks)
		defer stream.Close()

		status := providers.StatusError
		defer func() {
			observer.ObserveRequest(name, req.Model, status, time.Since(start))
		}()

		for {
			chunk, err := stream.Read(ctx)
			if errors.Is(err, io.EOF) {
				status = providers.StatusSuccess
				return
			}
			if err != nil {
				observer.ObserveError(name, providers.ErrorType(err))
				select {
				case chunks <- &providers.StreamChunk{Error: err}:
				case <-ctx.Done():
				}
				return
			}

			if chunk.Usage != nil {
				observer.ObserveTokens(name, req.Model, chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}

// HealthCheck lists models through the proxy.
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.RunHealthCheck(ctx, func(ctx context.Context) error {
		_, err := p.ListModels(ctx)
		return err
	})
}

// ListModels returns the sorted model IDs from GET /models.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	var list OpenAIModelList
	if _, err := p.DoJSONRequest(ctx, http.MethodGet, p.endpoint("/models"), nil, &list, p.headers(false)); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)

	return ids, nil
}

// endpoint joins the base URL and path.
func (p *Provider) endpoint(path string) string {
	return p.GetConfig().BaseURL + path
}

// headers returns the request headers. Authorization is only sent with a key.
func (p *Provider) headers(stream bool) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if stream {
		headers["Accept"] = "text/event-stream"
	}
	if key := p.GetConfig().APIKey; key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	return headers
}

// validateRequest validates the completion request.
func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}

	if strings.TrimSpace(req.Model) == "" {
		return &providers.ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(req.Messages) == 0 {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "at least one message is required",
		}
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case providers.RoleSystem, providers.RoleUser, providers.RoleAssistant, providers.RoleTool:
		default:
			return &providers.ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("unknown role %q", msg.Role),
			}
		}
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return &providers.ValidationError{
			Field:   "temperature",
			Message: "must be between 0 and 2",
		}
	}

	return nil
}

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"mercator-hq/courier/pkg/telemetry/logging"
	"mercator-hq/courier/pkg/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// HeaderRequestID carries the per-request correlation ID. It stays the
// same across retries so the proxy's log groups all attempts together.
const HeaderRequestID = "X-Request-ID"

// DefaultRetryBaseDelay is the backoff before the first retry. Each further
// retry doubles it.
const DefaultRetryBaseDelay = time.Second

// maxRetryDelay caps a single backoff.
const maxRetryDelay = 30 * time.Second

// maxErrorMessage bounds how much of an error body is kept in errors.
const maxErrorMessage = 512

// HTTPProvider is the base implementation for HTTP-based provider adapters.
// It owns the proxy-aware transport, retries, request IDs and trace
// propagation, and tracks health from request outcomes.
//
// Concrete provider implementations embed this struct and implement the
// Provider interface methods.
type HTTPProvider struct {
	config   ProviderConfig
	client   *http.Client
	observer Observer

	// retryBaseDelay is the first backoff; tests shorten it
	retryBaseDelay time.Duration

	health   ProviderHealth
	healthMu sync.RWMutex
}

// NewHTTPProvider creates a base HTTP provider with a pooled transport that
// routes requests through config.ProxyURL.
func NewHTTPProvider(config ProviderConfig) (*HTTPProvider, error) {
	transport, err := newTransport(config)
	if err != nil {
		return nil, err
	}

	p := &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		observer:       nopObserver{},
		retryBaseDelay: DefaultRetryBaseDelay,
		health: ProviderHealth{
			IsHealthy: true, // Start optimistic
			LastCheck: time.Now(),
		},
	}

	return p, nil
}

// GetName returns the provider's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// GetType returns the provider's type.
func (p *HTTPProvider) GetType() string {
	return p.config.Type
}

// GetConfig returns the provider's configuration.
func (p *HTTPProvider) GetConfig() ProviderConfig {
	return p.config
}

// SetObserver installs a telemetry observer. Nil restores the no-op observer.
func (p *HTTPProvider) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	p.observer = o
}

// Observer returns the installed telemetry observer.
func (p *HTTPProvider) Observer() Observer {
	return p.observer
}

// SetRetryBaseDelay sets the backoff before the first retry.
func (p *HTTPProvider) SetRetryBaseDelay(d time.Duration) {
	p.retryBaseDelay = d
}

// recordRequest records the outcome of one attempt.
func (p *HTTPProvider) recordRequest(success bool) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if !success {
		p.health.FailedRequests++
	}
}

// WithRequestID returns a context whose requests are sent with id as their
// X-Request-ID, so callers know the ID even when the request fails.
func WithRequestID(ctx context.Context, id string) context.Context {
	return logging.WithRequestID(ctx, id)
}

// DoRequest performs an HTTP request through the configured proxy.
//
// Every attempt carries the same X-Request-ID, taken from ctx when set with
// WithRequestID and generated otherwise, and the W3C trace context of
// ctx. Network errors and 5xx responses are retried with exponential backoff
// up to MaxRetries; 4xx responses, proxy failures and cancellation are
// returned immediately. With MaxRetries 0 exactly one attempt is made.
//
// On success the caller owns resp.Body.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	requestID := logging.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logging.WithRequestID(ctx, requestID)
	}
	ctx = logging.WithProvider(ctx, p.config.Name)

	ctx, span := tracing.StartClientSpan(ctx, "HTTP "+method,
		attribute.String(tracing.AttrHTTPMethod, method),
		attribute.String(tracing.AttrURLFull, url),
		attribute.String(tracing.AttrProvider, p.config.Name),
		attribute.String(tracing.AttrRequestID, requestID),
	)
	if p.config.ProxyURL != "" && !p.config.DisableProxy {
		span.SetAttributes(attribute.String(tracing.AttrProxy, redactedProxy(p.config.ProxyURL)))
	}
	defer span.End()

	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff(attempt, p.retryBaseDelay)
			slog.DebugContext(ctx, "retrying request",
				"attempt", attempt,
				"max_retries", p.config.MaxRetries,
				"backoff", backoff,
			)
			p.observer.ObserveRetry(p.config.Name)

			if err := sleepContext(ctx, backoff); err != nil {
				tracing.SetStatus(span, err)
				return nil, err
			}
		}
		span.SetAttributes(attribute.Int(tracing.AttrAttempt, attempt+1))

		resp, err := p.attempt(ctx, method, url, body, headers, requestID)
		if err == nil {
			p.recordRequest(true)
			p.updateHealth(true, nil)
			span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))
			tracing.SetStatus(span, nil)
			return resp, nil
		}

		lastErr = err
		p.recordRequest(false)
		p.observer.ObserveError(p.config.Name, ErrorType(err))

		var providerErr *ProviderError
		if errors.As(err, &providerErr) && providerErr.StatusCode > 0 {
			span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, providerErr.StatusCode))
		}

		if !retryable(ctx, err) {
			break
		}

		if attempt < p.config.MaxRetries {
			slog.WarnContext(ctx, "request failed, will retry",
				"attempt", attempt+1,
				"error", err,
			)
		}
	}

	p.updateHealth(false, lastErr)
	span.SetAttributes(attribute.String(tracing.AttrErrorType, ErrorType(lastErr)))
	tracing.SetStatus(span, lastErr)
	return nil, lastErr
}

// attempt sends a single request and maps failures to typed errors.
func (p *HTTPProvider) attempt(ctx context.Context, method, url string, body []byte, headers map[string]string, requestID string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}
	req.Header.Set(HeaderRequestID, requestID)
	tracing.Inject(ctx, req.Header)

	slog.DebugContext(ctx, "sending request to provider",
		"method", method,
		"url", url,
	)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.transportError(ctx, err)
	}

	slog.DebugContext(ctx, "provider responded",
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	return nil, p.statusError(resp, errorBody)
}

// transportError classifies an error returned by http.Client.Do.
func (p *HTTPProvider) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout, Cause: ctxErr}
		}
		return ctxErr
	}

	if isProxyConnectError(err) {
		return &ProxyError{
			Provider: p.config.Name,
			Proxy:    redactedProxy(p.config.ProxyURL),
			Cause:    err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout, Cause: err}
	}

	return &ProviderError{
		Provider: p.config.Name,
		Message:  "request failed",
		Cause:    err,
	}
}

// statusError maps a non-2xx response to a typed error.
func (p *HTTPProvider) statusError(resp *http.Response, body []byte) error {
	message := errorMessage(body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    message,
		}

	case http.StatusProxyAuthRequired:
		return &ProxyError{
			Provider:   p.config.Name,
			Proxy:      redactedProxy(p.config.ProxyURL),
			StatusCode: resp.StatusCode,
		}

	case http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   p.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}

	default:
		return &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}
}

// retryable reports whether another attempt may succeed.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode == 0 || providerErr.StatusCode >= 500
	}

	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// DoJSONRequest marshals reqBody, performs the request, and decodes the
// response into respBody. The raw response body is returned as well.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody interface{}, respBody interface{}, headers map[string]string) ([]byte, error) {
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return responseBytes, &ParseError{
				Provider:    p.config.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return responseBytes, nil
}

// Close closes idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Debug("provider closed", "provider", p.config.Name)
	return nil
}

// errorMessage extracts error.message from an OpenAI-style error body,
// falling back to the trimmed body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	message := strings.TrimSpace(string(body))
	if len(message) > maxErrorMessage {
		message = message[:maxErrorMessage] + "..."
	}
	return message
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

// retryBackoff returns base * 2^(attempt-1), capped at maxRetryDelay.
func retryBackoff(attempt int, base time.Duration) time.Duration {
	if attempt <= 1 {
		return base
	}

	backoff := base
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return backoff
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

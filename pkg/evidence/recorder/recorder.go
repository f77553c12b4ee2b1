package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/costs"
	"mercator-hq/courier/pkg/evidence"
	"mercator-hq/courier/pkg/providers"
)

// Config contains configuration for the evidence recorder.
type Config struct {
	// HashRequest stores the SHA-256 of the request body.
	// Default: true
	HashRequest bool

	// HashResponse stores the SHA-256 of the response body.
	// Default: true
	HashResponse bool

	// RedactAPIKeys stores a fingerprint instead of the key.
	// Default: true
	RedactAPIKeys bool

	// StoreBodies keeps the full request and response bodies.
	// Default: false
	StoreBodies bool

	// MaxFieldLength truncates prompts and reply text.
	// Default: 500
	MaxFieldLength int

	// WriteTimeout bounds a single storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		HashRequest:    true,
		HashResponse:   true,
		RedactAPIKeys:  true,
		MaxFieldLength: config.DefaultEvidenceMaxFieldLength,
		WriteTimeout:   5 * time.Second,
	}
}

// ConfigFromCourier builds a recorder configuration from the evidence settings.
func ConfigFromCourier(cfg config.EvidenceConfig) *Config {
	c := DefaultConfig()
	c.StoreBodies = cfg.StoreBodies
	c.MaxFieldLength = cfg.MaxFieldLength
	return c
}

// Exchange is one chat completion attempt as seen by the client.
type Exchange struct {
	Provider string
	BaseURL  string
	Proxy    string
	APIKey   string

	// RequestID is the X-Request-ID sent upstream. A response carrying its
	// own RequestID takes precedence.
	RequestID string

	Request  *providers.CompletionRequest
	Response *providers.CompletionResponse
	Err      error

	Start time.Time
	End   time.Time

	// Cost is nil when no estimate was made
	Cost *costs.CostEstimate

	// TokensEstimated marks Response.Usage as estimated locally
	TokensEstimated bool
}

// Recorder turns exchanges into evidence records and stores them.
type Recorder struct {
	storage evidence.Storage
	config  *Config
	logger  *slog.Logger
}

// NewRecorder creates a recorder writing to storage.
func NewRecorder(storage evidence.Storage, cfg *Config) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Recorder{
		storage: storage,
		config:  cfg,
		logger:  slog.Default().With("component", "evidence.recorder"),
	}
}

// Record builds the record for ex and stores it. The write runs even when
// ctx is already canceled, so interrupted exchanges are recorded too.
func (r *Recorder) Record(ctx context.Context, ex *Exchange) (*evidence.Record, error) {
	record := r.Build(ex)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(writeCtx, record); err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return nil, evidence.NewRecorderError(record.ID, err)
	}

	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"status", record.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return record, nil
}

// Build creates the evidence record for an exchange without storing it.
func (r *Recorder) Build(ex *Exchange) *evidence.Record {
	record := &evidence.Record{
		ID:              uuid.New().String(),
		RequestID:       ex.RequestID,
		RequestTime:     ex.Start,
		ResponseTime:    ex.End,
		Latency:         ex.End.Sub(ex.Start),
		Provider:        ex.Provider,
		BaseURL:         ex.BaseURL,
		Proxy:           ex.Proxy,
		TokensEstimated: ex.TokensEstimated,
	}

	if r.config.RedactAPIKeys {
		record.APIKey = RedactAPIKey(ex.APIKey)
	} else {
		record.APIKey = ex.APIKey
	}

	if ex.Request != nil {
		r.extractRequest(record, ex.Request)
	}

	if ex.Err != nil {
		r.extractError(record, ex.Err)
	} else {
		record.Status = evidence.StatusSuccess
		record.HTTPStatus = http.StatusOK
	}

	if ex.Response != nil {
		r.extractResponse(record, ex.Response)
	}

	if ex.Cost != nil {
		record.Cost = ex.Cost.TotalCost
	}

	return record
}

// extractRequest copies the request fields and hashes its body.
func (r *Recorder) extractRequest(record *evidence.Record, req *providers.CompletionRequest) {
	record.Model = req.Model
	record.Messages = len(req.Messages)
	record.Stream = req.Stream

	for _, msg := range req.Messages {
		if msg.Role == providers.RoleSystem && record.SystemPrompt == "" {
			record.SystemPrompt = TruncateString(msg.Content, r.config.MaxFieldLength)
		}
		if msg.Role == providers.RoleUser && record.UserPrompt == "" {
			record.UserPrompt = TruncateString(msg.Content, r.config.MaxFieldLength)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return
	}
	if r.config.HashRequest {
		record.RequestHash = HashContent(body)
	}
	if r.config.StoreBodies {
		record.RequestBody = string(body)
	}
}

// extractResponse copies the response fields. Streamed replies carry no
// raw body; their assembled content is hashed instead.
func (r *Recorder) extractResponse(record *evidence.Record, resp *providers.CompletionResponse) {
	if resp.RequestID != "" {
		record.RequestID = resp.RequestID
	}
	record.ResponseModel = resp.Model
	record.ResponseContent = TruncateString(resp.Content, r.config.MaxFieldLength)
	record.FinishReason = resp.FinishReason
	record.PromptTokens = resp.Usage.PromptTokens
	record.CompletionTokens = resp.Usage.CompletionTokens
	record.TotalTokens = resp.Usage.TotalTokens

	body := resp.Raw
	if len(body) == 0 {
		body = []byte(resp.Content)
	}
	if r.config.HashResponse {
		record.ResponseHash = HashContent(body)
	}
	if r.config.StoreBodies && len(resp.Raw) > 0 {
		record.ResponseBody = string(resp.Raw)
	}
}

// extractError records the failure and whatever status and body came back.
func (r *Recorder) extractError(record *evidence.Record, err error) {
	record.Status = evidence.StatusError
	record.Error = err.Error()
	record.ErrorType = providers.ErrorType(err)
	record.HTTPStatus = statusCode(err)

	var parseErr *providers.ParseError
	if errors.As(err, &parseErr) && parseErr.RawResponse != "" {
		if r.config.HashResponse {
			record.ResponseHash = HashString(parseErr.RawResponse)
		}
		if r.config.StoreBodies {
			record.ResponseBody = parseErr.RawResponse
		}
	}
}

// statusCode returns the HTTP status carried by a provider error, or 0.
func statusCode(err error) int {
	var (
		providerErr  *providers.ProviderError
		authErr      *providers.AuthError
		rateLimitErr *providers.RateLimitError
		proxyErr     *providers.ProxyError
		parseErr     *providers.ParseError
	)

	switch {
	case errors.As(err, &authErr):
		return authErr.StatusCode
	case errors.As(err, &rateLimitErr):
		return http.StatusTooManyRequests
	case errors.As(err, &proxyErr):
		return proxyErr.StatusCode
	case errors.As(err, &providerErr):
		return providerErr.StatusCode
	case errors.As(err, &parseErr):
		return http.StatusOK
	default:
		return 0
	}
}

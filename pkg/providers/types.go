package providers

import (
	"crypto/tls"
	"time"
)

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional name for the message sender
	Name string `json:"name,omitempty"`
}

// ToolCall represents a function/tool call returned by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall represents a specific function invocation.
type FunctionCall struct {
	Name string `json:"name"`

	// Arguments is a JSON string containing the function arguments
	Arguments string `json:"arguments"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// CachedPromptTokens is the part of PromptTokens served from the
	// provider's prompt cache, when reported.
	CachedPromptTokens int `json:"cached_prompt_tokens,omitempty"`
}

// CompletionRequest represents a provider-agnostic completion request.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "gpt-3.5-turbo")
	Model string `json:"model"`

	// Messages is the conversation history
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0). Nil leaves the
	// provider default in place.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate (0 = provider default)
	MaxTokens int `json:"max_tokens,omitempty"`

	// Stream indicates whether to stream the response
	Stream bool `json:"stream,omitempty"`

	// Stop sequences that will halt generation
	Stop []string `json:"stop,omitempty"`

	// User is an optional user identifier for abuse monitoring
	User string `json:"user,omitempty"`

	// Metadata is not sent to the provider
	Metadata map[string]string `json:"-"`
}

// CompletionResponse represents a provider-agnostic completion response.
type CompletionResponse struct {
	ID string `json:"id"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Content is the generated text content
	Content string `json:"content"`

	// FinishReason indicates why generation stopped
	// (stop, length, tool_calls, content_filter)
	FinishReason string `json:"finish_reason"`

	Usage TokenUsage `json:"usage"`

	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`

	// RequestID is the X-Request-ID sent with the request
	RequestID string `json:"request_id,omitempty"`

	// Raw is the exact response body returned by the upstream
	Raw []byte `json:"-"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	// ID is the response identifier (same across all chunks)
	ID string `json:"id"`

	Model string `json:"model"`

	// Delta is the incremental content in this chunk
	Delta string `json:"delta"`

	// FinishReason is set in the final chunk to indicate why generation stopped
	FinishReason string `json:"finish_reason,omitempty"`

	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Usage is included in the final chunk (if supported by provider)
	Usage *TokenUsage `json:"usage,omitempty"`

	// Error is set if an error occurred during streaming
	Error error `json:"-"`

	Created int64 `json:"created"`
}

// ProviderHealth tracks the health status of a provider.
type ProviderHealth struct {
	IsHealthy bool

	// LastCheck is the time of the last health check or request
	LastCheck time.Time

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// LastLatency is the duration of the last health check
	LastLatency time.Duration

	ConsecutiveFailures int

	LastSuccessfulRequest time.Time

	TotalRequests  int64
	FailedRequests int64
}

// ProviderConfig contains configuration for a single provider instance.
type ProviderConfig struct {
	// Name is the provider identifier used in logs and metrics
	Name string

	// Type is the provider type (openai)
	Type string

	// BaseURL is the API endpoint base URL, e.g. http://api.openai.com/v1
	BaseURL string

	// APIKey is sent as a bearer token when non-empty
	APIKey string

	// Timeout bounds a single attempt, including reading the body
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt (0 = none)
	MaxRetries int

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// ProxyURL routes every request through this proxy (http, https or
	// socks5). Empty falls back to the HTTP_PROXY/HTTPS_PROXY environment.
	ProxyURL string

	// NoProxy lists hosts that bypass ProxyURL. A leading dot or a bare
	// domain also matches subdomains; "*" bypasses everything.
	NoProxy []string

	// DisableProxy connects directly, ignoring ProxyURL and the environment
	DisableProxy bool

	// TLS is used for HTTPS upstreams, including those tunnelled through
	// the proxy with CONNECT. Nil uses the Go defaults.
	TLS *tls.Config

	// UserAgent is sent on every request when non-empty
	UserAgent string
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)

package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderError represents a general provider error.
// It includes the provider name, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("provider %q error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ProxyError is returned when the configured proxy cannot be reached,
// refuses the CONNECT tunnel, or demands authentication (HTTP 407).
type ProxyError struct {
	// Provider is the name of the provider the request was for
	Provider string

	// Proxy is the proxy URL with any password redacted
	Proxy string

	// StatusCode is set when the proxy answered with an error status
	StatusCode int

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q proxy %s refused request (status %d)", e.Provider, e.Proxy, e.StatusCode)
	}
	return fmt.Sprintf("provider %q proxy %s unreachable: %v", e.Provider, e.Proxy, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure.
// This occurs when the provider rejects the API key (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// StatusCode is 401 or 403
	StatusCode int

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the provider.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request timeout.
// This occurs when a request exceeds the configured timeout duration.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Unwrap returns the underlying error for error chain support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response parsing failure.
// This occurs when the provider returns a malformed response.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request validation failure.
// This occurs when the request has invalid fields before sending to the provider.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// StreamError represents an error that occurred during streaming.
// This is sent through the stream channel to indicate an error.
type StreamError struct {
	// Provider is the name of the provider where the error occurred
	Provider string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ConfigError represents a provider configuration error.
// This occurs when the provider configuration is invalid.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// Error type labels returned by ErrorType.
const (
	ErrorTypeProxy       = "proxy"
	ErrorTypeAuth        = "auth"
	ErrorTypeRateLimit   = "rate_limit"
	ErrorTypeTimeout     = "timeout"
	ErrorTypeParse       = "parse"
	ErrorTypeStream      = "stream"
	ErrorTypeValidation  = "validation"
	ErrorTypeConfig      = "config"
	ErrorTypeClientError = "client_error"
	ErrorTypeServerError = "server_error"
	ErrorTypeCanceled    = "canceled"
	ErrorTypeNetwork     = "network"
)

// ErrorType maps err to a short label for metrics and logs.
// Unrecognized errors are reported as "network".
func ErrorType(err error) string {
	var (
		proxyErr      *ProxyError
		authErr       *AuthError
		rateLimitErr  *RateLimitError
		timeoutErr    *TimeoutError
		parseErr      *ParseError
		streamErr     *StreamError
		validationErr *ValidationError
		configErr     *ConfigError
		providerErr   *ProviderError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &proxyErr):
		return ErrorTypeProxy
	case errors.As(err, &authErr):
		return ErrorTypeAuth
	case errors.As(err, &rateLimitErr):
		return ErrorTypeRateLimit
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.As(err, &parseErr):
		return ErrorTypeParse
	case errors.As(err, &streamErr):
		return ErrorTypeStream
	case errors.As(err, &validationErr):
		return ErrorTypeValidation
	case errors.As(err, &configErr):
		return ErrorTypeConfig
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.As(err, &providerErr):
		switch {
		case providerErr.StatusCode >= 500:
			return ErrorTypeServerError
		case providerErr.StatusCode >= 400:
			return ErrorTypeClientError
		}
	}
	return ErrorTypeNetwork
}

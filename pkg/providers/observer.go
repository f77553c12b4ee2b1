package providers

import "time"

// Observer receives request telemetry from providers.
// The metrics collector implements it; a nil observer is replaced with a no-op.
type Observer interface {
	// ObserveRequest is called once per logical request, after retries.
	ObserveRequest(provider, model, status string, duration time.Duration)

	// ObserveTokens is called with the usage reported by the upstream.
	ObserveTokens(provider, model string, promptTokens, completionTokens int)

	// ObserveSize is called with request and response body sizes.
	ObserveSize(provider, model, direction string, sizeBytes int)

	// ObserveError is called for every failed attempt with its ErrorType.
	ObserveError(provider, errorType string)

	// ObserveRetry is called before every retried attempt.
	ObserveRetry(provider string)
}

// Request outcome labels for ObserveRequest.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, string, time.Duration) {}
func (nopObserver) ObserveTokens(string, string, int, int)              {}
func (nopObserver) ObserveSize(string, string, string, int)             {}
func (nopObserver) ObserveError(string, string)                         {}
func (nopObserver) ObserveRetry(string)                                 {}

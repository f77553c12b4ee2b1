package providers

import (
	"sync"
	"time"
)

// recordingObserver counts observer calls.
type recordingObserver struct {
	mu       sync.Mutex
	errors   []string
	retries  int
	requests []string
}

func (o *recordingObserver) ObserveRequest(provider, model, status string, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, status)
}

func (o *recordingObserver) ObserveTokens(string, string, int, int)  {}
func (o *recordingObserver) ObserveSize(string, string, string, int) {}

func (o *recordingObserver) ObserveError(provider, errorType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, errorType)
}

func (o *recordingObserver) ObserveRetry(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries++
}

func testProviderConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Name:         "test-provider",
		Type:         "openai",
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		DisableProxy: true,
	}
}

func newTestProvider(t interface{ Fatalf(string, ...any) }, config ProviderConfig) *HTTPProvider {
	p, err := NewHTTPProvider(config)
	if err != nil {
		t.Fatalf("NewHTTPProvider failed: %v", err)
	}
	p.SetRetryBaseDelay(time.Millisecond)
	return p
}

package openai

import (
	"sync"
	"time"
)

type countingObserver struct {
	mu               sync.Mutex
	statuses         []string
	retries          int
	errors           []string
	promptTokens     int
	completionTokens int
	sizes            map[string]int
}

func (o *countingObserver) ObserveRequest(provider, model, status string, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *countingObserver) ObserveTokens(provider, model string, prompt, completion int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.promptTokens += prompt
	o.completionTokens += completion
}

func (o *countingObserver) ObserveSize(provider, model, direction string, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sizes == nil {
		o.sizes = make(map[string]int)
	}
	o.sizes[direction] += size
}

func (o *countingObserver) ObserveError(provider, errorType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, errorType)
}

func (o *countingObserver) ObserveRetry(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries++
}

func (o *countingObserver) snapshot() (statuses []string, prompt, completion int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.statuses...), o.promptTokens, o.completionTokens
}

package health

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Check statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusSkipped   = "skipped"
)

// Report statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// ErrSkipped marks a check that did not apply. Wrap it to give a reason.
var ErrSkipped = errors.New("skipped")

// CheckFunc checks one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report aggregates the results of every registered check.
type Report struct {
	// Status is healthy when no check is unhealthy, degraded otherwise
	Status string `json:"status"`

	// Checks are in registration order
	Checks []CheckResult `json:"checks"`

	Timestamp time.Time `json:"timestamp"`
}

// Healthy reports whether no check failed.
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Result returns the result of the named check.
func (r Report) Result(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

type namedCheck struct {
	name  string
	check CheckFunc
}

// Checker runs named checks concurrently, each bounded by a timeout.
type Checker struct {
	mu     sync.RWMutex
	checks []namedCheck

	checkTimeout time.Duration
}

// New creates a checker. A zero timeout means 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{checkTimeout: checkTimeout}
}

// Register adds a check. Registering an existing name replaces it in place.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.checks {
		if c.checks[i].name == name {
			c.checks[i].check = check
			return
		}
	}
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Names returns the registered check names in order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.checks))
	for i, nc := range c.checks {
		names[i] = nc.name
	}
	return names
}

// Run executes every check and returns the report.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make([]namedCheck, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup

	for i, nc := range checks {
		wg.Add(1)
		go func(i int, nc namedCheck) {
			defer wg.Done()
			results[i] = c.runCheck(ctx, nc)
		}(i, nc)
	}
	wg.Wait()

	status := StatusHealthy
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			status = StatusDegraded
		}
	}

	return Report{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single check with timeout.
func (c *Checker) runCheck(ctx context.Context, nc namedCheck) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	result := CheckResult{Name: nc.name}

	errChan := make(chan error, 1)
	go func() {
		errChan <- nc.check(checkCtx)
	}()

	select {
	case err := <-errChan:
		result.Duration = time.Since(start)
		switch {
		case err == nil:
			result.Status = StatusOK
		case errors.Is(err, ErrSkipped):
			result.Status = StatusSkipped
			result.Message = err.Error()
		default:
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		}

	case <-checkCtx.Done():
		result.Duration = time.Since(start)
		result.Status = StatusUnhealthy
		result.Message = "health check timeout"
	}

	return result
}

// Package health runs registered dependency checks concurrently and serves
// the aggregate as liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

var severity = map[Status]int{StatusUp: 0, StatusDegraded: 1, StatusDown: 2}

func worse(a, b Status) Status {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

// Check probes one dependency.
type Check func(ctx context.Context) ComponentHealth

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the worst component status plus every component's result.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Ping adapts an error-returning probe. A failing optional dependency is
// degraded rather than down.
func Ping(optional bool, probe func(ctx context.Context) error) Check {
	failed := StatusDown
	if optional {
		failed = StatusDegraded
	}
	return func(ctx context.Context) ComponentHealth {
		if err := probe(ctx); err != nil {
			return ComponentHealth{Status: failed, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

type Checker struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
	started time.Time
}

// NewChecker bounds every check by timeout, 5s when unset.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{checks: make(map[string]Check), timeout: timeout, started: time.Now()}
}

func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

func (c *Checker) snapshot() ([]string, []Check) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = c.checks[name]
	}
	return names, checks
}

// Run executes every check concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	names, checks := c.snapshot()
	results := make([]ComponentHealth, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Go(func() {
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			start := time.Now()
			results[i] = check(checkCtx)
			results[i].Latency = time.Since(start).Round(time.Millisecond).String()
		})
	}
	wg.Wait()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(names)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for i, name := range names {
		report.Components[name] = results[i]
		report.Status = worse(report.Status, results[i].Status)
	}
	return report
}

// LiveHandler answers as long as the process is serving.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "alive",
			"uptime": time.Since(c.started).Round(time.Second).String(),
		})
	}
}

// ReadyHandler answers 503 while any required dependency is down.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ============================================================================
// koi - KoiLang command parser
// ============================================================================
//
// Package:     health
// Description: Health check registry served by the live parse server
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Checker is an interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

func (c *namedCheck) Name() string                          { return c.name }
func (c *namedCheck) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// ProbeCheck reports unhealthy with the error message when probe fails
func ProbeCheck(name string, probe func(ctx context.Context) error) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		if err := probe(ctx); err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy}
	})
}

// Registry manages multiple health checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	service  string
	version  string
	startAt  time.Time
}

// NewRegistry creates a new health check registry
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		service:  service,
		version:  version,
		startAt:  time.Now(),
	}
}

// Register adds a checker, replacing one with the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// Check runs all checks concurrently. The report lists them by name.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		checkers = append(checkers, c)
	}
	r.mu.RUnlock()

	report := &Report{
		Service:   r.service,
		Version:   r.version,
		Uptime:    time.Since(r.startAt).Round(time.Second).String(),
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, len(checkers)),
	}

	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			if result.Name == "" {
				result.Name = c.Name()
			}
			report.Checks[i] = result
		}(i, checker)
	}
	wg.Wait()

	sort.Slice(report.Checks, func(i, j int) bool {
		return report.Checks[i].Name < report.Checks[j].Name
	})

	report.Status = StatusHealthy
	for _, result := range report.Checks {
		switch result.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status != StatusUnhealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

// Report represents the overall health report
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    string        `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// HTTPStatus is 503 for an unhealthy report and 200 otherwise
func (r *Report) HTTPStatus() int {
	if r.Status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Handler serves the report as JSON, bounding the checks by timeout
func (r *Registry) Handler(timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()

		report := r.Check(ctx)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(report.HTTPStatus())
		json.NewEncoder(w).Encode(report)
	})
}

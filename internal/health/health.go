// Package health runs named probes and reports an aggregate status.
package health

import (
	"context"
	"sort"
	"time"
)

// Probe checks one dependency
type Probe func(ctx context.Context) error

type HealthChecker struct {
	probes  map[string]Probe
	timeout time.Duration
}

type HealthStatus struct {
	Status string                      `json:"status"`
	Checks map[string]DependencyHealth `json:"checks"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthChecker{probes: map[string]Probe{}, timeout: timeout}
}

// Register adds a probe. Registering the same name twice replaces it.
func (h *HealthChecker) Register(name string, p Probe) {
	h.probes[name] = p
}

// Check runs every probe in name order. Any failure makes the whole status
// unhealthy.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status := HealthStatus{Status: "healthy", Checks: make(map[string]DependencyHealth, len(names))}
	for _, name := range names {
		dep := h.run(ctx, h.probes[name])
		if dep.Status != "healthy" {
			status.Status = "unhealthy"
		}
		status.Checks[name] = dep
	}
	return status
}

func (h *HealthChecker) run(ctx context.Context, p Probe) DependencyHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return DependencyHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

// Package monitoring evaluates liveness and readiness probes for the dashboard process.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

const defaultProbeTimeout = 3 * time.Second

// ProbeResult captures a single probe outcome.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// HealthReport aggregates probe results. Success is false as soon as one probe is not up.
type HealthReport struct {
	Success bool          `json:"success"`
	Status  ProbeStatus   `json:"status"`
	Checks  []ProbeResult `json:"checks"`
}

// Check is a named probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) ProbeResult
}

// NewCheck constructs a check. A nil fn always reports down.
func NewCheck(name string, fn func(ctx context.Context) ProbeResult) Check {
	if fn == nil {
		fn = func(context.Context) ProbeResult {
			return ProbeResult{Status: StatusDown, Details: "probe not implemented"}
		}
	}
	return Check{Name: name, Run: fn}
}

// HealthManager coordinates liveness and readiness probes.
type HealthManager struct {
	mu        sync.RWMutex
	timeout   time.Duration
	liveness  []Check
	readiness []Check
}

// NewHealthManager constructs an empty manager. Each probe runs under timeout, or a
// three second default when timeout is not positive.
func NewHealthManager(timeout time.Duration) *HealthManager {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &HealthManager{timeout: timeout}
}

func (m *HealthManager) RegisterLiveness(check Check) {
	if check.Name == "" {
		return
	}
	m.mu.Lock()
	m.liveness = append(m.liveness, check)
	m.mu.Unlock()
}

func (m *HealthManager) RegisterReadiness(check Check) {
	if check.Name == "" {
		return
	}
	m.mu.Lock()
	m.readiness = append(m.readiness, check)
	m.mu.Unlock()
}

// EvaluateLiveness runs the liveness probes.
func (m *HealthManager) EvaluateLiveness(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := append([]Check(nil), m.liveness...)
	m.mu.RUnlock()
	return m.evaluate(ctx, checks)
}

// EvaluateReadiness runs the readiness probes.
func (m *HealthManager) EvaluateReadiness(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := append([]Check(nil), m.readiness...)
	m.mu.RUnlock()
	return m.evaluate(ctx, checks)
}

func (m *HealthManager) evaluate(ctx context.Context, checks []Check) HealthReport {
	report := HealthReport{
		Success: true,
		Status:  StatusUp,
		Checks:  make([]ProbeResult, 0, len(checks)),
	}

	for _, check := range checks {
		result := m.run(ctx, check)
		report.Checks = append(report.Checks, result)

		switch result.Status {
		case StatusDown:
			report.Success = false
			report.Status = StatusDown
		case StatusDegraded:
			report.Success = false
			if report.Status != StatusDown {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func (m *HealthManager) run(ctx context.Context, check Check) (result ProbeResult) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = ProbeResult{Status: StatusDown, Details: fmt.Sprint(rec)}
		}
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		result.Component = check.Name
	}()

	return check.Run(ctx)
}

// ResultFromError reports up for a nil error, degraded for a timeout or cancellation and down
// otherwise.
func ResultFromError(err error, duration time.Duration) ProbeResult {
	if duration < 0 {
		duration = 0
	}
	if err == nil {
		return ProbeResult{Status: StatusUp, Duration: duration}
	}

	status := StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = StatusDegraded
	}
	return ProbeResult{Status: status, Details: err.Error(), Duration: duration}
}

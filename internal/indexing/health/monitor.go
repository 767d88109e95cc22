package health

import (
	"sync"
	"time"
)

// Monitor records run outcomes and derives a health status from them.
type Monitor struct {
	criticalAfter int

	mu     sync.RWMutex
	report HealthReport
}

// NewMonitor creates a monitor that reports critical after criticalAfter
// consecutive failed runs.
func NewMonitor(criticalAfter int) *Monitor {
	if criticalAfter < 1 {
		criticalAfter = 3
	}
	return &Monitor{
		criticalAfter: criticalAfter,
		report:        HealthReport{SystemStatus: StatusHealthy},
	}
}

// RunStarted marks a run as active.
func (m *Monitor) RunStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report.Running = true
}

// RunFinished records the outcome of a run.
func (m *Monitor) RunFinished(result any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.report.Running = false
	m.report.TotalRuns++
	m.report.LastRun = now

	if err != nil {
		m.report.ConsecutiveFailures++
		m.report.LastError = err.Error()
	} else {
		m.report.ConsecutiveFailures = 0
		m.report.LastError = ""
		m.report.LastSuccess = now
		m.report.LastResult = result
	}

	switch {
	case m.report.ConsecutiveFailures >= m.criticalAfter:
		m.report.SystemStatus = StatusCritical
	case m.report.ConsecutiveFailures > 0:
		m.report.SystemStatus = StatusDegraded
	default:
		m.report.SystemStatus = StatusHealthy
	}
}

// CheckHealth returns a copy of the current report.
func (m *Monitor) CheckHealth() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.report
}

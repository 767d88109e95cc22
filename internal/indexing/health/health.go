// Package health provides job health monitoring and the serve-mode HTTP endpoints.
package health

import "time"

// SystemStatus represents the overall health state of the job.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// HealthReport describes recent run outcomes.
type HealthReport struct {
	SystemStatus        SystemStatus `json:"system_status"`
	Running             bool         `json:"running"`
	TotalRuns           int          `json:"total_runs"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	LastRun             time.Time    `json:"last_run"`
	LastSuccess         time.Time    `json:"last_success"`
	LastError           string       `json:"last_error,omitempty"`
	LastResult          any          `json:"last_result,omitempty"`
}

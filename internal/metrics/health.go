package metrics

import (
	"context"
	"runtime"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status  string `json:"status"` // "healthy", "degraded", "unhealthy"
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     string                  `json:"status"` // "healthy", "degraded", "unhealthy"
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// TokenValidator checks the upstream credentials
type TokenValidator interface {
	ValidateToken(ctx context.Context) error
}

// CheckUpstreamHealth checks that Trello accepts the configured credentials
func CheckUpstreamHealth(ctx context.Context, v TokenValidator) HealthStatus {
	if v == nil {
		return HealthStatus{
			Status:  "unhealthy",
			Message: "trello client not initialized",
		}
	}

	start := time.Now()
	err := v.ValidateToken(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return HealthStatus{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency,
		}
	}

	// Trello slower than 2s still answers, but scrapes will be slow
	if latency > 2000 {
		return HealthStatus{
			Status:  "degraded",
			Message: "high latency",
			Latency: latency,
		}
	}

	return HealthStatus{
		Status:  "healthy",
		Latency: latency,
	}
}

// CheckMemoryHealth checks memory usage
func CheckMemoryHealth(maxHeapMB uint64) HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	heapMB := memStats.HeapAlloc / 1024 / 1024

	if heapMB > maxHeapMB {
		return HealthStatus{
			Status:  "unhealthy",
			Message: "heap memory exceeds limit",
		}
	}

	// Warn if using more than 80% of limit
	if heapMB > (maxHeapMB * 80 / 100) {
		return HealthStatus{
			Status:  "degraded",
			Message: "heap memory usage high",
		}
	}

	return HealthStatus{
		Status: "healthy",
	}
}

// DetermineOverallStatus determines overall health from component statuses
func DetermineOverallStatus(components map[string]HealthStatus) string {
	hasUnhealthy := false
	hasDegraded := false

	for _, status := range components {
		switch status.Status {
		case "unhealthy":
			hasUnhealthy = true
		case "degraded":
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return "unhealthy"
	}
	if hasDegraded {
		return "degraded"
	}
	return "healthy"
}

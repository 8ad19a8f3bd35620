package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pmaxhogan/trello-to-prometheus/internal/metrics"
)

// readinessTimeout limita a validação do token no Trello
const readinessTimeout = 5 * time.Second

// UptimeSource informa há quanto tempo o exporter está no ar
type UptimeSource interface {
	GetUptime() time.Duration
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	validator metrics.TokenValidator
	uptime    UptimeSource
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(validator metrics.TokenValidator, uptime UptimeSource, version string) *HealthHandler {
	return &HealthHandler{
		validator: validator,
		uptime:    uptime,
		version:   version,
	}
}

// LivenessCheck returns basic liveness status
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck returns readiness status including Trello connectivity
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	components := map[string]metrics.HealthStatus{
		"trello": metrics.CheckUpstreamHealth(ctx, h.validator),
		"memory": metrics.CheckMemoryHealth(256),
	}

	overallStatus := metrics.DetermineOverallStatus(components)

	healthCheck := metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     h.uptime.GetUptime().String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}

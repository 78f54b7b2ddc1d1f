package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/middleware"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthController struct {
	checks map[string]HealthCheck
}

func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{checks: checks}
}

// Health handles GET /health; any failing dependency turns the answer into 503.
func (ctrl *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(ctrl.checks))
	for name, check := range ctrl.checks {
		if err := check(ctx); err != nil {
			middleware.GetLoggerFromContext(c).Error("Health check failed", err, map[string]interface{}{
				"component": name,
			})
			components[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"message":    "QuonPass API is running",
		"components": components,
	})
}

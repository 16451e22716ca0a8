package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketpulse/backend/logging"
)

// Health is the liveness probe. It never touches a dependency.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Check is one named dependency probe for Readiness.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Readiness answers "ready" only when every check passes within timeout.
func Readiness(timeout time.Duration, checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logging.FromContext(c.Request.Context()).Warn("readiness check failed",
					slog.String("check", check.Name),
					slog.Any("error", err),
				)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unavailable",
					"check":  check.Name,
				})
				return
			}
		}
		c.String(http.StatusOK, "ready")
	}
}

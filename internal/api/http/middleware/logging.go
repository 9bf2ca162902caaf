package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/metrics"
)

// Logging logs every HTTP request and records its metrics.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs route, duration and status for each request.
func (l *Logging) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()

		l.logger.Debug("HTTP request started",
			"method", c.Request.Method,
			"path", c.Request.URL.Path)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(route, c.Request.Method, status, duration)

		l.logger.Info("HTTP request completed",
			"method", c.Request.Method,
			"route", route,
			"duration_ms", duration.Milliseconds(),
			"status", status)

		if len(c.Errors) > 0 {
			l.logger.Error("HTTP request failed",
				"method", c.Request.Method,
				"route", route,
				"error", c.Errors.String(),
				"status", status)
		}
	}
}

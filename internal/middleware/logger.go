// ========================================
// internal/middleware/logger.go
// Request logging middleware with structured logs

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger creates a custom logging middleware
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		// Log request details
		latency := time.Since(start)
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := logrus.Fields{
			"request_id": c.GetString("request_id"),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency":    latency,
			"path":       path,
		}
		if errorMessage != "" {
			fields["error"] = errorMessage
		}
		logger.WithFields(fields).Info("http request")
	}
}

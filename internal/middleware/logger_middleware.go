package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sketchly/billing-service/pkg/logger"
)

// RequestLogger logs each HTTP request with its latency and status code.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Infow("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"clientIP", c.ClientIP(),
		)
	}
}

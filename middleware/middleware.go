package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sopdesk/logger"
	"sopdesk/metrics"
)

// Logger is a Gin middleware for logging HTTP requests and responses and
// recording request metrics.
func Logger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("component", "HTTP")
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(statusCode)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", statusCode,
			"latency", latency,
			"clientIp", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "errors", errs)
		}
		switch {
		case statusCode >= 500:
			reqLog.Error("request", fields...)
		case statusCode >= 400:
			reqLog.Warn("request", fields...)
		default:
			reqLog.Info("request", fields...)
		}
	}
}

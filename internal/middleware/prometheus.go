package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/metrics"
)

// MetricsMiddleware records request count and latency for Prometheus. The
// route template is used as the label, not the raw path, to keep cardinality
// bounded.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(startTime).Seconds())
	}
}

package middleware

import (
	"comment-service/metrics"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware creates a middleware for collecting Prometheus metrics.
// Requests are labelled by route template so path parameters do not explode
// label cardinality; unmatched routes fall back to "unmatched".
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		statusCode := strconv.Itoa(c.Writer.Status())

		metrics.HttpRequestsTotal.WithLabelValues(method, path, statusCode, serviceName).Inc()
		metrics.HttpRequestDuration.WithLabelValues(method, path, serviceName).
			Observe(time.Since(start).Seconds())
	}
}

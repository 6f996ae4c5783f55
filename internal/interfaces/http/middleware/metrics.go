package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latency by route template, so ids in
// paths do not create new series.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		method := c.Request.Method
		m.HTTPActiveRequests.WithLabelValues(method).Inc()
		start := time.Now()

		c.Next()

		m.HTTPActiveRequests.WithLabelValues(method).Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		prometheus.RecordHTTPRequest(m, method, route, c.Writer.Status(), time.Since(start))
	}
}

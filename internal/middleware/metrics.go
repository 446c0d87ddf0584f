package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhall/planner-api/internal/service"
)

// Metrics records method, route template, status and latency for every
// request. The route template keeps cardinality bounded; unmatched paths fall
// back to the raw URL. A nil service disables collection.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}

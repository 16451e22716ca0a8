package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder is satisfied by *metrics.Collector.
type HTTPRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// HTTPMetrics labels requests by route template so IDs do not explode cardinality.
func HTTPMetrics(rec HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.RecordHTTPRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

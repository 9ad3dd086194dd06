package middleware

import (
	"strconv"
	"time"

	"property_portal_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

// RequestTimer records request latency under the matched route template so
// path parameters do not explode label cardinality.
func RequestTimer() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.Get().RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labdesk/lab-ledger-api/internal/service"
)

// Metrics records per-request counters and latency. The scrape endpoint
// itself is skipped so Prometheus polling does not drown out the kiosk
// and admin traffic.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// Unmatched routes have no template; fall back to the raw path.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

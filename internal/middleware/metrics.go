package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carebase/carebase/pkg/metrics"
)

// Metrics records per-route request totals and latency plus an in-flight
// gauge. Labels use the route template rather than the raw path to keep
// cardinality bounded.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		collector.InFlightGauge.Inc()

		c.Next()

		collector.InFlightGauge.Dec()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		collector.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		collector.RequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}

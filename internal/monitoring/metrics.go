package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector manages Prometheus metrics for the service
type MetricsCollector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	reportsSubmitted    *prometheus.CounterVec
	tokensAwarded       prometheus.Counter
	tokensSpent         prometheus.Counter
}

// NewMetricsCollector creates and registers the service metrics
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greencycle_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "greencycle_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		reportsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greencycle_reports_submitted_total",
				Help: "Waste reports submitted, by resulting status",
			},
			[]string{"status"},
		),
		tokensAwarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "greencycle_tokens_awarded_total",
				Help: "Tokens credited through report accrual",
			},
		),
		tokensSpent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "greencycle_tokens_spent_total",
				Help: "Tokens deducted through reward redemption",
			},
		),
	}

	prometheus.MustRegister(
		mc.httpRequestsTotal,
		mc.httpRequestDuration,
		mc.reportsSubmitted,
		mc.tokensAwarded,
		mc.tokensSpent,
	)

	return mc
}

// Middleware returns a Gin middleware recording request counts and latency
func (mc *MetricsCollector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		mc.httpRequestsTotal.WithLabelValues(
			c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()),
		).Inc()
		mc.httpRequestDuration.WithLabelValues(
			c.Request.Method, endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the /metrics endpoint handler
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ReportSubmitted records a submitted report with its resulting status
func (mc *MetricsCollector) ReportSubmitted(status string) {
	mc.reportsSubmitted.WithLabelValues(status).Inc()
}

// TokensAwarded records tokens credited by the accrual engine
func (mc *MetricsCollector) TokensAwarded(amount int64) {
	mc.tokensAwarded.Add(float64(amount))
}

// TokensSpent records tokens deducted by a redemption
func (mc *MetricsCollector) TokensSpent(amount int64) {
	mc.tokensSpent.Add(float64(amount))
}

package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	LoginAttempts    *prometheus.CounterVec
	AssignmentsTotal *prometheus.CounterVec
	ImportRows       *prometheus.CounterVec

	// Cache metrics
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheErrors        *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec
	CacheKeysSwept     *prometheus.CounterVec
}

// New registers all metrics against reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		LoginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"}, // success, failed
		),
		AssignmentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outlet_assignments_total",
				Help: "Assignment rows created or removed",
			},
			[]string{"operation"}, // assign, unassign
		),
		ImportRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outlet_import_rows_total",
				Help: "Rows processed by bulk outlet imports",
			},
			[]string{"result"}, // imported, skipped, failed
		),

		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"family"},
		),
		CacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"family"},
		),
		CacheErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_errors_total",
				Help: "Cache operations that failed and were degraded",
			},
			[]string{"operation"},
		),
		CacheInvalidations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_invalidations_total",
				Help: "Prefix sweeps issued per key family",
			},
			[]string{"family"},
		),
		CacheKeysSwept: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_keys_swept_total",
				Help: "Keys deleted by prefix sweeps",
			},
			[]string{"family"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/v1/outlets/:uid

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(time.Since(start).Seconds())
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordLoginAttempt increments login attempts counter
func (m *Metrics) RecordLoginAttempt(success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

// RecordAssignments adds n to the assign or unassign counter
func (m *Metrics) RecordAssignments(operation string, n int) {
	if n > 0 {
		m.AssignmentsTotal.WithLabelValues(operation).Add(float64(n))
	}
}

// RecordImport records the row outcome of one import run
func (m *Metrics) RecordImport(imported, skipped, failed int) {
	m.ImportRows.WithLabelValues("imported").Add(float64(imported))
	m.ImportRows.WithLabelValues("skipped").Add(float64(skipped))
	m.ImportRows.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) RecordCacheHit(family string) {
	m.CacheHits.WithLabelValues(family).Inc()
}

func (m *Metrics) RecordCacheMiss(family string) {
	m.CacheMisses.WithLabelValues(family).Inc()
}

func (m *Metrics) RecordCacheError(operation string) {
	m.CacheErrors.WithLabelValues(operation).Inc()
}

// RecordCacheInvalidation counts one sweep and the keys it removed
func (m *Metrics) RecordCacheInvalidation(family string, keys int) {
	m.CacheInvalidations.WithLabelValues(family).Inc()
	m.CacheKeysSwept.WithLabelValues(family).Add(float64(keys))
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fct_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fct_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fct_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Rate limiting metrics
	rateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fct_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
	)

	// Panic recovery metrics
	panicRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fct_panic_recoveries_total",
			Help: "Total number of panics recovered in HTTP handlers",
		},
	)

	// Search metrics
	searchMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fct_search_matches",
			Help:    "Number of foods matching a search before paging",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	// Snapshot metrics
	snapshotReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fct_snapshot_reloads_total",
			Help: "Snapshot reload attempts by result (installed, unchanged, failed)",
		},
		[]string{"result"},
	)

	snapshotFoods = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fct_snapshot_foods",
			Help: "Number of foods in the installed snapshot",
		},
	)

	snapshotLoadedAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fct_snapshot_loaded_timestamp_seconds",
			Help: "Unix time the installed snapshot was built",
		},
	)
)

// instrument records RED metrics for one route. The route pattern is used as
// the label so path parameters do not create new series.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

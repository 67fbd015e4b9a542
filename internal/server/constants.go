package server

import "time"

// HTTP server constants
const (
	// HTTP timeouts
	HTTPReadTimeout  = 15 * time.Second
	HTTPWriteTimeout = 15 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Shutdown timeout
	HTTPShutdownTimeout = 30 * time.Second

	// Readiness results are reused for this long
	ReadyCacheDuration = 2 * time.Second

	// Seconds a client should wait before retrying a 503 or 429
	RetryAfterSeconds = "1"

	RequestIDHeader = "X-Request-Id"
)

// Routes
const (
	RouteFoods      = "GET /v1/foods"
	RouteFood       = "GET /v1/foods/{id}"
	RouteNutrients  = "GET /v1/nutrients"
	RouteCategories = "GET /v1/categories"
	RouteHealth     = "GET /health"
	RouteReady      = "GET /ready"
	RouteMetrics    = "GET /metrics"
)

// publicPaths skip authentication and rate limiting
var publicPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

package observability

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for the flows worth alarming on: credential verification
// outcomes and event relay losses.  Registered once per process.
var (
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Credential verification attempts by outcome.",
		},
		[]string{"outcome"}, // success | fallback | invalid | transient | error
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events published by queue and result.",
		},
		[]string{"queue", "result"}, // result: ok | dropped
	)

	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Domain events consumed by result.",
		},
		[]string{"result"}, // ok | malformed | failed
	)
)

// Register installs the counters in the default registry.
func Register() {
	prometheus.MustRegister(AuthAttempts, EventsPublished, EventsConsumed)
}

// MetricsRoute exposes the Prometheus handler on /metrics.
func MetricsRoute(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

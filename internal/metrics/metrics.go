package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for statboard
type Metrics struct {
	// Backend gateway
	BackendRequestsTotal          *prometheus.CounterVec
	BackendRequestDurationSeconds *prometheus.HistogramVec

	// Session manager
	SessionTransitionsTotal *prometheus.CounterVec

	// Served dashboard
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	HTTPErrorsTotal            *prometheus.CounterVec
	WebSessions                prometheus.Gauge

	// Process
	UptimeSeconds prometheus.GaugeFunc

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()
	start := time.Now()

	m := &Metrics{
		BackendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statboard_backend_requests_total",
				Help: "Total number of requests issued to the reporting backend",
			},
			[]string{"endpoint", "outcome"},
		),
		BackendRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statboard_backend_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		SessionTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statboard_session_transitions_total",
				Help: "Total number of session state transitions by target state",
			},
			[]string{"state"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statboard_http_requests_total",
				Help: "Total number of dashboard HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statboard_http_request_duration_seconds",
				Help:    "Dashboard HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statboard_http_errors_total",
				Help: "Total number of dashboard HTTP errors",
			},
			[]string{"error_type"},
		),
		WebSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "statboard_web_sessions",
				Help: "Number of signed-in browser sessions held by the dashboard",
			},
		),
		UptimeSeconds: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "statboard_uptime_seconds",
				Help: "Process uptime in seconds",
			},
			func() float64 { return time.Since(start).Seconds() },
		),

		registry: reg,
	}

	reg.MustRegister(
		m.BackendRequestsTotal,
		m.BackendRequestDurationSeconds,
		m.SessionTransitionsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.HTTPErrorsTotal,
		m.WebSessions,
		m.UptimeSeconds,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// ObserveBackendRequest records one finished backend call.
// outcome is "ok" or an error category from CategorizeStatus.
func ObserveBackendRequest(endpoint, outcome string, d time.Duration) {
	m := Global()
	if m != nil {
		m.BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
		m.BackendRequestDurationSeconds.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// IncSessionTransition counts a move of the session manager into state
func IncSessionTransition(state string) {
	m := Global()
	if m != nil {
		m.SessionTransitionsTotal.WithLabelValues(state).Inc()
	}
}

// SetWebSessions records how many browser sessions are held
func SetWebSessions(n int) {
	m := Global()
	if m != nil {
		m.WebSessions.Set(float64(n))
	}
}

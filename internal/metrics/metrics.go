package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	registry *prometheus.Registry

	sessionsTracked     prometheus.Gauge
	sessionsStarted     prometheus.Counter
	sessionsFinished    *prometheus.CounterVec
	sessionOutputBytes  prometheus.Counter
	sessionInputRelays  prometheus.Counter
	commandRunsTotal    *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		registry := prometheus.NewRegistry()

		m := &moduleMetrics{
			registry: registry,
			sessionsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "interactive_sessions_tracked",
				Help: "Number of sessions currently held by the registry.",
			}),
			sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "interactive_sessions_started_total",
				Help: "Total number of sessions created.",
			}),
			sessionsFinished: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "interactive_sessions_finished_total",
					Help: "Total number of sessions reaching a terminal status.",
				},
				[]string{"status"},
			),
			sessionOutputBytes: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "interactive_session_output_bytes_total",
				Help: "Total bytes drained from session processes.",
			}),
			sessionInputRelays: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "interactive_session_input_relays_total",
				Help: "Total input writes relayed to session processes.",
			}),
			commandRunsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "oneshot_command_runs_total",
					Help: "Total one-shot command executions by status.",
				},
				[]string{"status"},
			),
			httpRequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total HTTP requests by method, route, and status code.",
				},
				[]string{"method", "route", "code"},
			),
			httpRequestDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}

		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			m.sessionsTracked,
			m.sessionsStarted,
			m.sessionsFinished,
			m.sessionOutputBytes,
			m.sessionInputRelays,
			m.commandRunsTotal,
			m.httpRequestsTotal,
			m.httpRequestDuration,
		)

		metricsInst = m
	})
	return metricsInst
}

// EnsureRegistered initializes the metric set. Safe to call from any
// package that records metrics.
func EnsureRegistered() {
	getMetrics()
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	m := getMetrics()
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetSessionsTracked records the current registry size.
func SetSessionsTracked(n int) {
	getMetrics().sessionsTracked.Set(float64(n))
}

// IncSessionsStarted counts a session creation.
func IncSessionsStarted() {
	getMetrics().sessionsStarted.Inc()
}

// IncSessionsFinished counts a session reaching a terminal status.
func IncSessionsFinished(status string) {
	getMetrics().sessionsFinished.WithLabelValues(status).Inc()
}

// AddSessionOutputBytes counts bytes drained from a session process.
func AddSessionOutputBytes(n int) {
	getMetrics().sessionOutputBytes.Add(float64(n))
}

// IncInputRelays counts an input write relayed to a session process.
func IncInputRelays() {
	getMetrics().sessionInputRelays.Inc()
}

// IncCommandRuns counts a one-shot command execution outcome.
func IncCommandRuns(status string) {
	getMetrics().commandRunsTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route, code string, duration time.Duration) {
	m := getMetrics()
	m.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "webterm"

var (
	durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	storeBuckets    = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1}
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
	AuthAttempts  *prometheus.CounterVec
	RateLimited   *prometheus.CounterVec

	// Interpreter metrics
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	SessionsActive  prometheus.Gauge

	// Relay metrics
	RelayRoundTrip *prometheus.HistogramVec
	RelayTimeouts  *prometheus.CounterVec

	// Store metrics
	StoreOperations *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the stats API
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON stats endpoint.
type Snapshot struct {
	TotalRequests     int64
	TotalErrors       int64
	TotalCommands     int64
	FailedCommands    int64
	RateLimited       int64
	ActiveConnections int64
	ActiveSessions    int64
	TotalDuration     float64
	RequestCount      int64
}

// NewMetrics creates a collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"method", "path"},
		),

		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of open terminal connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
		AuthAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Connection authentication attempts",
			},
			[]string{"result"},
		),
		RateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by a rate limiter",
			},
			[]string{"scope"},
		),

		Commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Terminal commands executed",
			},
			[]string{"command", "status"},
		),
		CommandDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Terminal command duration in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"command"},
		),
		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Interpreter sessions in memory",
			},
		),

		RelayRoundTrip: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "relay_round_trip_seconds",
				Help:      "Broker to interpreter round trip in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"operation", "outcome"},
		),
		RelayTimeouts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relay_timeouts_total",
				Help:      "Relay requests that timed out",
			},
			[]string{"operation"},
		),

		StoreOperations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Filesystem store operation duration in seconds",
				Buckets:   storeBuckets,
			},
			[]string{"operation"},
		),
		StoreErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Filesystem store operations that failed",
			},
			[]string{"operation"},
		),
	}

	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// RecordAuth counts a handshake by result ("ok", "rejected", "error").
func (m *Metrics) RecordAuth(result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(result).Inc()
}

// IncRateLimited counts a rejection by scope ("session", "http").
func (m *Metrics) IncRateLimited(scope string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(scope).Inc()
	m.mu.Lock()
	m.snapshot.RateLimited++
	m.mu.Unlock()
}

// ObserveCommand records one interpreted command.
func (m *Metrics) ObserveCommand(name, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(name, status).Inc()
	m.CommandDuration.WithLabelValues(name).Observe(d.Seconds())

	m.mu.Lock()
	m.snapshot.TotalCommands++
	if status != "ok" {
		m.snapshot.FailedCommands++
	}
	m.mu.Unlock()
}

// SetActiveSessions sets the number of interpreter sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(n)
	m.mu.Unlock()
}

// ObserveRelayRoundTrip records a broker to interpreter round trip.
func (m *Metrics) ObserveRelayRoundTrip(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RelayRoundTrip.WithLabelValues(operation, outcome).Observe(d.Seconds())
	if outcome == "timeout" {
		m.RelayTimeouts.WithLabelValues(operation).Inc()
	}
}

// ObserveStoreOperation records a filesystem store call.
func (m *Metrics) ObserveStoreOperation(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.StoreOperations.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

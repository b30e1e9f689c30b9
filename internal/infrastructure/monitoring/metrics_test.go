package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandAndSessionMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand("ls", "ok", 2*time.Millisecond)
	m.ObserveCommand("ls", "ok", time.Millisecond)
	m.ObserveCommand("cat", "error", time.Millisecond)
	m.SetActiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("ls", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("cat", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.TotalCommands)
	assert.Equal(t, int64(1), stats.FailedCommands)
	assert.Equal(t, int64(3), stats.ActiveSessions)
}

func TestRelayAndStoreMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveRelayRoundTrip("execute", "ok", 5*time.Millisecond)
	m.ObserveRelayRoundTrip("execute", "timeout", 10*time.Second)
	m.ObserveStoreOperation("create", nil, time.Millisecond)
	m.ObserveStoreOperation("create", errors.New("disk full"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayTimeouts.WithLabelValues("execute")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("create")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RelayRoundTrip))
}

func TestConnectionAndLimiterMetrics(t *testing.T) {
	m := NewMetrics()

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.IncRateLimited("session")
	m.RecordAuth("rejected")
	m.RecordWSMessage("in", "command")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("session")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSMessages.WithLabelValues("in", "command")))

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.ActiveConnections)
	assert.Equal(t, int64(1), stats.RateLimited)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCommand("ls", "ok", time.Millisecond)
		m.SetActiveSessions(1)
		m.ObserveRelayRoundTrip("execute", "ok", time.Millisecond)
		m.ObserveStoreOperation("read", nil, time.Millisecond)
		m.IncWSConnections()
		m.DecWSConnections()
		m.IncRateLimited("http")
		m.RecordAuth("ok")
		m.RecordWSMessage("out", "output")
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
	assert.Equal(t, Stats{}, m.Stats())
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/health", "/api/health", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.TotalErrors)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "webterm_http_requests_total"))
	assert.True(t, strings.Contains(body, "webterm_uptime_seconds"))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		a := NewMetrics()
		b := NewMetrics()
		a.ObserveCommand("pwd", "ok", time.Millisecond)
		assert.Equal(t, 0.0, testutil.ToFloat64(b.Commands.WithLabelValues("pwd", "ok")))
	})
}

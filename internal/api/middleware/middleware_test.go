package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type rejectCounter struct {
	mu     sync.Mutex
	scopes []string
}

func (r *rejectCounter) IncRateLimited(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scope)
}

func TestCORS(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatus     int
		wantCORSHeader bool
	}{
		{
			name:           "simple GET request with origin",
			method:         "GET",
			origin:         "http://localhost:3000",
			wantStatus:     http.StatusOK,
			wantCORSHeader: true,
		},
		{
			name:           "preflight OPTIONS request",
			method:         "OPTIONS",
			origin:         "http://localhost:3000",
			wantStatus:     http.StatusNoContent,
			wantCORSHeader: true,
		},
		{
			name:       "no origin header",
			method:     "GET",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORSHeader {
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORSRestrictedOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.Origins = []string{"https://term.example.com"}

	router := setupTestRouter()
	router.Use(CORS(cfg))
	router.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "https://term.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://term.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckOrigin(t *testing.T) {
	restricted := CORSConfig{Origins: []string{"https://term.example.com"}}

	tests := []struct {
		name   string
		cfg    CORSConfig
		origin string
		want   bool
	}{
		{name: "any origin", cfg: DefaultCORSConfig(), origin: "https://evil.example.com", want: true},
		{name: "empty list allows all", cfg: CORSConfig{}, origin: "https://x.example.com", want: true},
		{name: "listed origin", cfg: restricted, origin: "https://term.example.com", want: true},
		{name: "case insensitive", cfg: restricted, origin: "https://TERM.example.com", want: true},
		{name: "unlisted origin", cfg: restricted, origin: "https://evil.example.com", want: false},
		{name: "no origin header", cfg: restricted, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, tt.cfg.CheckOrigin(req))
		})
	}
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter()
	rejected := &rejectCounter{}
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 2, Burst: 2}, rejected))
	router.GET("/api/cli/execute", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/cli/execute", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	req := httptest.NewRequest("GET", "/api/cli/execute", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
	assert.Equal(t, []string{"http"}, rejected.scopes)
}

func TestRateLimitDifferentClients(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, nil))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	serve := func(addr string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("192.168.1.1:1234"))
	assert.Equal(t, http.StatusOK, serve("192.168.1.2:1234"))
	assert.Equal(t, http.StatusTooManyRequests, serve("192.168.1.1:1234"))
}

func TestDefaultConfigs(t *testing.T) {
	cors := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cors.Origins)
	assert.Equal(t, 12*time.Hour, cors.MaxAge)
	assert.Contains(t, corsMethods, http.MethodDelete)
	assert.Contains(t, corsHeaders, "Authorization")

	rl := DefaultRateLimitConfig()
	assert.Equal(t, 50.0, rl.RequestsPerSecond)
	assert.Equal(t, 100, rl.Burst)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimitersCapacityAndRefill(t *testing.T) {
	clk := &clock{now: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)}
	l := NewLimiters(100, time.Minute, WithLimiterClock(clk.Now))

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("sess-a"), "command %d should pass", i+1)
	}
	assert.False(t, l.Allow("sess-a"))

	// Another session has its own bucket.
	assert.True(t, l.Allow("sess-b"))

	// One token returns roughly every 600ms.
	clk.Advance(601 * time.Millisecond)
	assert.True(t, l.Allow("sess-a"))
	assert.False(t, l.Allow("sess-a"))

	clk.Advance(time.Minute)
	assert.True(t, l.AllowN("sess-a", 100))
	assert.False(t, l.AllowN("sess-a", 1))
}

func TestLimitersRelease(t *testing.T) {
	clk := &clock{now: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)}
	l := NewLimiters(1, time.Hour, WithLimiterClock(clk.Now))

	assert.True(t, l.Allow("s"))
	assert.False(t, l.Allow("s"))
	assert.Equal(t, 1, l.Len())

	l.Release("s")
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Allow("s"))
}

func TestLimitersUnlimited(t *testing.T) {
	l := NewLimiters(0, time.Minute)
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow("s"))
	}
	assert.Equal(t, 0, l.Len())
}

func BenchmarkRateLimit(b *testing.B) {
	router := setupTestRouter()
	router.Use(RateLimit(DefaultRateLimitConfig(), nil))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:1234"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

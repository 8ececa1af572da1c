package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
	"github.com/seo-optimizer/geo/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandlerRecovers(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logging.Nop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/fail", func(c *gin.Context) { _ = c.Error(errors.New("backend unavailable")) })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })

	w := serve(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An unexpected error occurred")

	w = serve(r, http.MethodGet, "/fail", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "backend unavailable")

	w = serve(r, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	frozen := time.Now()
	rl.now = func() time.Time { return frozen }

	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/", "10.0.0.1:1234").Code)

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "10.0.0.2:1234").Code)

	frozen = frozen.Add(time.Second)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "10.0.0.1:1234").Code)
}

func TestRateLimitForgetsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	require.True(t, rl.allow("a"))
	now = now.Add(2 * idleVisitorTTL)
	require.True(t, rl.allow("b"))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "a")
	assert.Contains(t, rl.visitors, "b")
}

func TestStats(t *testing.T) {
	traffic, err := stats.NewTraffic(t.TempDir())
	require.NoError(t, err)
	m := metrics.NewManager()

	r := gin.New()
	r.Use(Stats(traffic, m, logging.Nop()))
	r.POST("/api/analyze", func(c *gin.Context) {
		c.Set(PageURLKey, "https://example.com/page")
		c.Status(http.StatusOK)
	})
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodPost, "/api/analyze", "10.0.0.1:1")
	serve(r, http.MethodGet, "/api/health", "10.0.0.2:1")

	s := traffic.Summary(5)
	assert.Equal(t, 2, s.UniqueVisitors24h)
	assert.Equal(t, 1, s.TotalRequests)
	require.Len(t, s.PopularURLs, 1)
	assert.Equal(t, "https://example.com/page", s.PopularURLs[0].URL)

	n, err := testutil.GatherAndCount(m.Registry(), "geo_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

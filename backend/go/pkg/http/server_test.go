package http

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/metrics"
	"SafetyCompliance/backend/go/pkg/circuitbreaker"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestConfig 创建测试用配置
func newTestConfig() *config.AppConfig {
	return &config.AppConfig{
		Middleware: config.MiddlewareConfig{
			RateLimiter: config.RateLimiterConfig{
				Enabled:   true,
				Algorithm: "tokenBucket",
				TokenBucket: config.TokenBucketConfig{
					Rate:     1,
					Capacity: 2,
				},
			},
			CircuitBreaker: config.CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 2,
				SuccessThreshold: 2,
				Timeout:          "10s",
			},
		},
	}
}

func TestNewServer_Address(t *testing.T) {
	srv, err := NewServer(newTestConfig(), WithAddress(":9999"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", srv.Addr())

	cfg := newTestConfig()
	cfg.Server.Address = ":7000"
	srv, err = NewServer(cfg)
	require.NoError(t, err)
	assert.Equal(t, ":7000", srv.Addr())

	srv, err = NewServer(&config.AppConfig{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultServerAddress, srv.Addr())
}

func TestNewServer_InvalidBreakerTimeout(t *testing.T) {
	cfg := newTestConfig()
	cfg.Middleware.CircuitBreaker.Timeout = "eventually"
	_, err := NewServer(cfg)
	assert.ErrorContains(t, err, "failed to create circuit breaker")
}

func TestRateLimiterMiddleware(t *testing.T) {
	cfg := newTestConfig()
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	limit, err := RateLimiter(cfg.Middleware.RateLimiter)
	require.NoError(t, err)
	srv.Engine().GET("/", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
	}
	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiter_Disabled(t *testing.T) {
	h, err := RateLimiter(config.RateLimiterConfig{})
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	srv, err := NewServer(newTestConfig(), WithMetrics(metrics.New()))
	require.NoError(t, err)
	srv.Engine().GET("/fail", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "Internal Server Error")
	})

	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(ts.URL + "/fail")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/fail")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "Circuit Breaker is open"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv, err := NewServer(&config.AppConfig{}, WithAddress("127.0.0.1:0"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestBreakerTransport(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	defer upstream.Close()

	rt, err := NewTransport(config.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, SuccessThreshold: 1, Timeout: "1h"}, nil)
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	resp, err := client.Get(upstream.URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "boom")

	_, err = client.Get(upstream.URL)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestNewTransport_Disabled(t *testing.T) {
	rt, err := NewTransport(config.CircuitBreakerConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.DefaultTransport, rt)
}

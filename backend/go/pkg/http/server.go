// Package http 封装了带有统一中间件的 Gin HTTP 服务，以及带熔断的 HTTP 传输层。
package http

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/metrics"
	"SafetyCompliance/backend/go/pkg/circuitbreaker"
	"SafetyCompliance/backend/go/pkg/httpmiddleware"
	"SafetyCompliance/backend/go/pkg/logger"
	"SafetyCompliance/backend/go/pkg/ratelimiter"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// shutdownTimeout 是优雅退出时等待在途请求的最长时间。
	shutdownTimeout = 10 * time.Second
	// 按客户端限流时最多跟踪的客户端数与空闲淘汰时间。
	limiterClients = 10000
	limiterIdle    = 10 * time.Minute
)

// Server 封装了 http.Server 与 Gin 引擎，并按配置挂载中间件。
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	metrics    *metrics.Metrics
	name       string
}

// ServerOption 定义了用于配置 Server 的函数。
type ServerOption func(*Server)

// WithAddress 设置服务器监听的地址。
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// WithMetrics 启用按路由的请求计数。
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithName 设置请求日志中的服务名。
func WithName(name string) ServerOption {
	return func(s *Server) {
		s.name = name
	}
}

// NewServer 根据配置创建服务器。中间件顺序：恢复、请求日志、指标、熔断。
// 限流只作用于部分路由，由调用方通过 RateLimiter 获取后自行挂载。
func NewServer(cfg *config.AppConfig, opts ...ServerOption) (*Server, error) {
	engine := gin.New()
	srv := &Server{
		httpServer: &http.Server{
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		name:   "http-server",
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = cfg.Server.Address
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = config.DefaultServerAddress
	}

	engine.Use(gin.Recovery(), httpmiddleware.RequestLogger(srv.name))
	if srv.metrics != nil {
		engine.Use(httpmiddleware.Metrics(srv.metrics))
	}
	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker, err := circuitbreaker.FromConfig(cfg.Middleware.CircuitBreaker)
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		engine.Use(httpmiddleware.CircuitBreak(breaker))
	}
	return srv, nil
}

// RateLimiter 根据配置返回按客户端限流的中间件，未启用时返回 nil。
func RateLimiter(cfg config.RateLimiterConfig) (gin.HandlerFunc, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	factory, err := ratelimiter.FactoryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	keyed, err := ratelimiter.NewKeyed(factory, limiterClients, limiterIdle)
	if err != nil {
		return nil, err
	}
	return httpmiddleware.RateLimitByClient(keyed), nil
}

// Engine 返回用于注册路由的 Gin 引擎。
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe 启动服务，正常关闭时返回 nil。
func (s *Server) ListenAndServe() error {
	logger.New(s.name, "", "").WithPayload(map[string]interface{}{"addr": s.httpServer.Addr}).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅地关闭服务。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run 启动服务并在 ctx 结束时优雅退出。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

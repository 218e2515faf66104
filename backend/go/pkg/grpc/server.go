// Package grpc 提供只承载标准健康检查与反射服务的 gRPC 监听，
// 供编排系统探测合规服务是否就绪。
package grpc

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/pkg/circuitbreaker"
	"SafetyCompliance/backend/go/pkg/grpcinterceptor"
	"SafetyCompliance/backend/go/pkg/logger"
	"SafetyCompliance/backend/go/pkg/ratelimiter"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server 封装了 grpc.Server 与健康检查服务。
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	address    string
	service    string
}

// ServerOption 定义了用于配置 Server 的函数。
type ServerOption func(*Server)

// WithAddress 设置服务器监听的地址。
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.address = addr
	}
}

// NewServer 创建 gRPC 服务，service 是健康检查中上报的服务名。
// 配置中启用的限流与熔断会作为拦截器挂载。
func NewServer(cfg *config.AppConfig, service string, opts ...ServerOption) (*Server, error) {
	interceptors := []grpc.UnaryServerInterceptor{grpcinterceptor.LoggingUnaryInterceptor(service)}

	if cfg.Middleware.RateLimiter.Enabled {
		limiter, err := ratelimiter.FromConfig(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		interceptors = append(interceptors, grpcinterceptor.RateLimitUnaryInterceptor(limiter))
	}
	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker, err := circuitbreaker.FromConfig(cfg.Middleware.CircuitBreaker)
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		interceptors = append(interceptors, grpcinterceptor.CircuitBreakUnaryInterceptor(breaker))
	}

	g := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(g, hs)
	reflection.Register(g)

	srv := &Server{grpcServer: g, health: hs, address: cfg.Server.GRPCAddress, service: service}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.address == "" {
		srv.address = ":9090"
	}
	srv.SetServing(true)
	return srv, nil
}

// SetServing 同时更新整体状态与具名服务的状态。
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(s.service, st)
}

// ListenAndServe 开始监听并提供 gRPC 服务。
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(lis)
}

// Serve 在给定的 listener 上提供服务。
func (s *Server) Serve(lis net.Listener) error {
	logger.New(s.service, "", "").WithPayload(map[string]interface{}{"addr": lis.Addr().String()}).Info("Starting gRPC health server")
	return s.grpcServer.Serve(lis)
}

// GracefulStop 把健康状态置为 NOT_SERVING 后优雅停止。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

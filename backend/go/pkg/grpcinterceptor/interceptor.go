// Package grpcinterceptor 提供 gRPC 一元拦截器：限流、熔断与请求日志。
package grpcinterceptor

import (
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/pkg/circuitbreaker"
	"SafetyCompliance/backend/go/pkg/logger"
	"SafetyCompliance/backend/go/pkg/ratelimiter"
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RateLimitUnaryInterceptor 被限流的请求返回 ResourceExhausted。
func RateLimitUnaryInterceptor(limiter ratelimiter.RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !limiter.Allow() {
			return nil, status.Errorf(codes.ResourceExhausted, "request rejected due to rate limiting")
		}
		return handler(ctx, req)
	}
}

// CircuitBreakUnaryInterceptor 熔断器打开时返回 Unavailable。
func CircuitBreakUnaryInterceptor(breaker circuitbreaker.CircuitBreaker) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := breaker.Execute(func() (interface{}, error) {
			return handler(ctx, req)
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return nil, status.Errorf(codes.Unavailable, "service unavailable: circuit breaker is open")
		}
		return resp, err
	}
}

// LoggingUnaryInterceptor 记录每次调用的方法、状态码与耗时。
func LoggingUnaryInterceptor(service string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := logger.New(service, "", "").WithPayload(map[string]interface{}{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(models.ErrorInfo{Message: err.Error(), Type: "grpc_error"}).Warn("gRPC call failed")
		} else {
			entry.Debug("gRPC call handled")
		}
		return resp, err
	}
}

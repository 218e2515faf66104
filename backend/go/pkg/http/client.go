package http

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/pkg/circuitbreaker"
	"errors"
	"fmt"
	"net/http"
)

// BreakerTransport 是带熔断保护的 http.RoundTripper，状态码 >= 500 计为失败。
// 可直接用于 resty.Client.SetTransport。
type BreakerTransport struct {
	base    http.RoundTripper
	breaker circuitbreaker.CircuitBreaker
}

// NewTransport 按配置创建传输层。熔断未启用时直接返回 base。
func NewTransport(cfg config.CircuitBreakerConfig, base http.RoundTripper) (http.RoundTripper, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	if !cfg.Enabled {
		return base, nil
	}
	breaker, err := circuitbreaker.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &BreakerTransport{base: base, breaker: breaker}, nil
}

// RoundTrip 实现 http.RoundTripper。服务端错误时仍返回响应本身，以便调用方读取错误体。
func (t *BreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	_, err := t.breaker.Execute(func() (interface{}, error) {
		var rtErr error
		resp, rtErr = t.base.RoundTrip(req)
		if rtErr != nil {
			return nil, rtErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}
		return nil, nil
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil, err
	}
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

package circuitbreaker

import (
	"SafetyCompliance/backend/go/internal/config"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State 是熔断器的状态。
type State int

const (
	// Closed 正常放行请求。
	Closed State = iota
	// Open 熔断中，直接拒绝请求。
	Open
	// HalfOpen 允许试探请求，用于判断下游是否恢复。
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen 表示熔断器处于打开状态。
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker 是熔断器接口。
type CircuitBreaker interface {
	// Execute 在熔断器允许时执行 req。
	Execute(req func() (interface{}, error)) (interface{}, error)
	State() State
}

type breaker struct {
	failureThreshold uint32
	successThreshold uint32
	timeout          time.Duration
	now              func() time.Time

	mu        sync.Mutex
	state     State
	successes uint32
	failures  uint32
	openedAt  time.Time
}

// New 创建一个熔断器：连续 failureThreshold 次失败后打开，
// 打开 timeout 之后进入半开，半开状态下连续 successThreshold 次成功后关闭。
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return newBreaker(failureThreshold, successThreshold, timeout, time.Now)
}

func newBreaker(failureThreshold, successThreshold uint32, timeout time.Duration, now func() time.Time) *breaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	return &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		now:              now,
		state:            Closed,
	}
}

// FromConfig 根据配置创建熔断器，timeout 为空时使用 30s。
func FromConfig(cfg config.CircuitBreakerConfig) (CircuitBreaker, error) {
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid circuit breaker timeout '%s': %w", cfg.Timeout, err)
		}
		timeout = d
	}
	return New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout), nil
}

func (cb *breaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	cb.mu.Lock()
	if cb.state == Open && cb.now().Sub(cb.openedAt) > cb.timeout {
		cb.state = HalfOpen
		cb.successes = 0
	}
	if cb.state == Open {
		cb.mu.Unlock()
		return nil, ErrCircuitOpen
	}
	cb.mu.Unlock()

	res, err := req()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
		return nil, err
	}
	cb.onSuccess()
	return res, nil
}

func (cb *breaker) onSuccess() {
	switch cb.state {
	case HalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = Closed
			cb.failures = 0
			cb.successes = 0
		}
	case Closed:
		cb.failures = 0
	}
}

func (cb *breaker) onFailure() {
	switch cb.state {
	case HalfOpen:
		cb.trip()
	case Closed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.trip()
		}
	}
}

func (cb *breaker) trip() {
	cb.state = Open
	cb.openedAt = cb.now()
	cb.failures = 0
	cb.successes = 0
}

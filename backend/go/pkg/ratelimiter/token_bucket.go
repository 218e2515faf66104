package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket 令牌桶：按固定速率补充令牌，允许不超过容量的突发请求。
type TokenBucket struct {
	rate     float64 // 每秒补充的令牌数
	capacity float64
	tokens   float64
	last     time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewTokenBucket 创建一个初始为满的令牌桶。
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return newTokenBucket(rate, capacity, time.Now)
}

func newTokenBucket(rate float64, capacity int, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		last:     now(),
		now:      now,
	}
}

// Allow 先按经过的时间补充令牌，再尝试消耗一个。
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

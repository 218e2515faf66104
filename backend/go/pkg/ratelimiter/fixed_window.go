package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter 固定窗口计数器：每个窗口内最多放行 limit 个请求。
type FixedWindowCounter struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewFixedWindowCounter 创建固定窗口计数器。
func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return newFixedWindowCounter(limit, window, time.Now)
}

func newFixedWindowCounter(limit int, window time.Duration, now func() time.Time) *FixedWindowCounter {
	return &FixedWindowCounter{
		limit:       limit,
		window:      window,
		windowStart: now(),
		now:         now,
	}
}

// Allow 窗口过期时重置计数。
func (c *FixedWindowCounter) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.After(c.windowStart.Add(c.window)) {
		c.windowStart = now
		c.count = 0
	}
	if c.count < c.limit {
		c.count++
		return true
	}
	return false
}

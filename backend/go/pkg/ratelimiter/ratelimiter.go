// Package ratelimiter 提供进程内的限流算法：令牌桶与固定窗口计数器。
package ratelimiter

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/pkg/util"
	"fmt"
	"sync"
	"time"
)

// 支持的算法名称，与配置文件中的 middleware.rateLimiter.algorithm 对应。
const (
	AlgorithmTokenBucket = "tokenBucket"
	AlgorithmFixedWindow = "fixedWindow"
)

// RateLimiter 判断一个请求是否被允许。
type RateLimiter interface {
	Allow() bool
}

// Factory 创建一个新的限流器实例。
type Factory func() RateLimiter

// FactoryFromConfig 校验配置并返回对应算法的构造函数。算法为空时使用令牌桶。
func FactoryFromConfig(cfg config.RateLimiterConfig) (Factory, error) {
	switch cfg.Algorithm {
	case AlgorithmTokenBucket, "":
		conf := cfg.TokenBucket
		if conf.Rate <= 0 || conf.Capacity <= 0 {
			return nil, fmt.Errorf("tokenBucket requires positive rate and capacity")
		}
		return func() RateLimiter { return NewTokenBucket(conf.Rate, conf.Capacity) }, nil
	case AlgorithmFixedWindow:
		conf := cfg.FixedWindow
		window, err := time.ParseDuration(conf.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid fixedWindow duration: %w", err)
		}
		if conf.Limit <= 0 {
			return nil, fmt.Errorf("fixedWindow requires a positive limit")
		}
		return func() RateLimiter { return NewFixedWindowCounter(conf.Limit, window) }, nil
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}
}

// FromConfig 根据配置创建单个全局限流器。
func FromConfig(cfg config.RateLimiterConfig) (RateLimiter, error) {
	f, err := FactoryFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return f(), nil
}

// Keyed 为每个键 (通常是客户端 IP) 维护独立的限流器。
// 限流器保存在 LRU 缓存中，长时间不活跃的键会被淘汰。
type Keyed struct {
	mu       sync.Mutex
	limiters *util.LRUCache[string, RateLimiter]
	factory  Factory
}

// NewKeyed 创建按键限流器，最多保留 capacity 个键，空闲超过 idle 的键被丢弃。
func NewKeyed(factory Factory, capacity int, idle time.Duration) (*Keyed, error) {
	cache, err := util.NewWithConfig(util.CacheConfig[string, RateLimiter]{Capacity: capacity, TTL: idle})
	if err != nil {
		return nil, err
	}
	return &Keyed{limiters: cache, factory: factory}, nil
}

// Allow 判断 key 对应的请求是否被允许。
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	l, ok := k.limiters.Get(key)
	if !ok {
		l = k.factory()
	}
	// 每次访问都重新 Put，刷新空闲时间
	k.limiters.Put(key, l)
	k.mu.Unlock()
	return l.Allow()
}

// Len 返回当前跟踪的键数量。
func (k *Keyed) Len() int {
	return k.limiters.Len()
}

package redis

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const connectTimeout = 5 * time.Second

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// GetClient 返回进程内共享的 Redis 客户端，首次调用时连接并 Ping。
func GetClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			initErr = fmt.Errorf("无法连接到 Redis '%s': %w", cfg.Address, err)
			return
		}

		logger.New("redis", "", "").
			WithPayload(map[string]interface{}{"address": cfg.Address, "db": cfg.DB}).
			Info("Connected to Redis")
		client = rdb
	})

	return client, initErr
}

// Close 关闭共享连接。未初始化时什么也不做。
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

package mongo

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

var (
	client  *mongo.Client
	once    sync.Once
	initErr error
)

// URI 把配置中的地址规范化为连接串，裸地址按 mongodb:// 处理。
func URI(cfg *config.MongoConfig) string {
	if strings.HasPrefix(cfg.Address, "mongodb://") || strings.HasPrefix(cfg.Address, "mongodb+srv://") {
		return cfg.Address
	}
	return "mongodb://" + cfg.Address
}

// GetClient 返回进程内共享的 MongoDB 客户端，首次调用时连接并 Ping。
func GetClient(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	once.Do(func() {
		opts := options.Client().ApplyURI(URI(cfg)).SetAppName("safety-compliance-manager")
		if cfg.Username != "" && cfg.Password != "" {
			opts.SetAuth(options.Credential{
				Username: cfg.Username,
				Password: cfg.Password,
			})
		}

		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		c, err := mongo.Connect(connCtx, opts)
		if err != nil {
			initErr = fmt.Errorf("无法连接到 MongoDB: %w", err)
			return
		}
		if err := c.Ping(connCtx, nil); err != nil {
			c.Disconnect(context.Background())
			initErr = fmt.Errorf("无法 Ping MongoDB: %w", err)
			return
		}

		logger.New("mongodb", "", "").
			WithPayload(map[string]interface{}{"database": cfg.Database}).
			Info("Connected to MongoDB")
		client = c
	})

	return client, initErr
}

// Close 断开共享连接。
func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

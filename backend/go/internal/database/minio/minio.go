package minio

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const connectTimeout = 10 * time.Second

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// GetClient 返回进程内共享的 MinIO 客户端，首次调用时建立连接。
// 报告归档只需要目标存储桶的权限，因此连通性检查使用 BucketExists 而不是 ListBuckets。
func GetClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
		})
		if err != nil {
			initErr = fmt.Errorf("无法创建 MinIO 客户端: %w", err)
			return
		}

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if _, err := c.BucketExists(pingCtx, cfg.Bucket); err != nil {
			initErr = fmt.Errorf("MinIO 连接检查失败: %w", err)
			return
		}

		logger.New("minio", "", "").
			WithPayload(map[string]interface{}{"endpoint": cfg.Endpoint, "bucket": cfg.Bucket}).
			Info("Connected to MinIO")
		client = c
	})

	return client, initErr
}

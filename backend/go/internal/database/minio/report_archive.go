package minio

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

const reportPrefix = "reports/"

// ReportArchive 将生成的文档上传到对象存储。
type ReportArchive struct {
	client *minio.Client
	bucket string
}

// NewReportArchive 创建 ReportArchive，存储桶不存在时自动创建。
func NewReportArchive(ctx context.Context, client *minio.Client, bucket string) (*ReportArchive, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶 '%s' 失败: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶 '%s' 失败: %w", bucket, err)
		}
	}
	return &ReportArchive{client: client, bucket: bucket}, nil
}

// ObjectName 返回本地文件在存储桶中的对象名。
func ObjectName(localPath string) string {
	return reportPrefix + filepath.Base(localPath)
}

// Archive 上传本地文件，返回对象名。
func (a *ReportArchive) Archive(ctx context.Context, localPath, contentType string) (string, error) {
	object := ObjectName(localPath)
	_, err := a.client.FPutObject(ctx, a.bucket, object, localPath, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传报告 '%s' 失败: %w", localPath, err)
	}
	return object, nil
}

package service

import (
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/internal/office"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"errors"
)

var (
	// ErrInvalidArgument 表示输入参数不合法。
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedDocument 表示文档类型、格式与来源的组合无法生成文档。
	ErrUnsupportedDocument = errors.New("unsupported document")
)

// ReportArchiver 将生成的文档归档到对象存储。
type ReportArchiver interface {
	Archive(ctx context.Context, localPath, contentType string) (string, error)
}

// DistributionPublisher 将政策分发请求交给外部发送程序。
type DistributionPublisher interface {
	PublishDistributions(ctx context.Context, reqs []models.DistributionRequest) error
}

// Service 封装了合规管理的业务逻辑。
type Service struct {
	store     *store.Store
	generator office.Generator
	archive   ReportArchiver
	publisher DistributionPublisher
	log       *logger.Logger
}

// Option 配置 Service 的可选依赖。
type Option func(*Service)

// WithReportArchive 启用报告归档。
func WithReportArchive(a ReportArchiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithDistributionPublisher 启用政策分发消息。
func WithDistributionPublisher(p DistributionPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService 创建一个新的 Service 实例。
func NewService(st *store.Store, gen office.Generator, opts ...Option) *Service {
	s := &Service{
		store:     st,
		generator: gen,
		log:       logger.New("compliance-service", "", ""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store 返回底层的 Store。
func (s *Service) Store() *store.Store {
	return s.store
}

package store

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
)

// CreateReport 登记一个已生成的文档。
func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	return s.db(ctx).Create(r).Error
}

// ListReports 按创建时间倒序返回报告。
func (s *Store) ListReports(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	if err := s.db(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetReport 通过 ID 查找报告。
func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var r models.Report
	if err := s.db(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

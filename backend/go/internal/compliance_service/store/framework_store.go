package store

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"

	"gorm.io/gorm"
)

func orderedControls(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateFramework 创建框架及其控制项。
func (s *Store) CreateFramework(ctx context.Context, fw *models.ComplianceFramework) error {
	for i := range fw.Controls {
		fw.Controls[i].Position = i
	}
	return s.db(ctx).Create(fw).Error
}

// ListFrameworks 按名称排序返回所有框架，不加载控制项。
func (s *Store) ListFrameworks(ctx context.Context) ([]models.ComplianceFramework, error) {
	var out []models.ComplianceFramework
	if err := s.db(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetFramework 通过 ID 查找框架并加载控制项。
func (s *Store) GetFramework(ctx context.Context, id string) (*models.ComplianceFramework, error) {
	var fw models.ComplianceFramework
	err := s.db(ctx).Preload("Controls", orderedControls).Where("id = ?", id).First(&fw).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &fw, nil
}

// GetFrameworkByName 通过名称精确查找框架并加载控制项。
func (s *Store) GetFrameworkByName(ctx context.Context, name string) (*models.ComplianceFramework, error) {
	var fw models.ComplianceFramework
	err := s.db(ctx).Preload("Controls", orderedControls).Where("name = ?", name).First(&fw).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &fw, nil
}

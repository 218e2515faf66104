package store

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"

	"gorm.io/gorm"
)

// CreateRisk 创建一条风险，分值由模型钩子计算。
func (s *Store) CreateRisk(ctx context.Context, risk *models.Risk) error {
	return s.db(ctx).Create(risk).Error
}

// ListRisks 按分值从高到低返回所有风险及其缓解措施。
func (s *Store) ListRisks(ctx context.Context) ([]models.Risk, error) {
	var out []models.Risk
	err := s.db(ctx).Preload("Mitigations").Order("score DESC").Order("created_at ASC").Order("id").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRisk 通过 ID 查找风险。
func (s *Store) GetRisk(ctx context.Context, id string) (*models.Risk, error) {
	var risk models.Risk
	err := s.db(ctx).Preload("Mitigations").Where("id = ?", id).First(&risk).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &risk, nil
}

// SaveRisk 保存风险的全部字段，分值在保存前重新计算。
func (s *Store) SaveRisk(ctx context.Context, risk *models.Risk) error {
	return s.db(ctx).Omit("Mitigations").Save(risk).Error
}

// AddMitigation 为风险添加缓解措施。
func (s *Store) AddMitigation(ctx context.Context, m *models.RiskMitigation) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Risk{}).Where("id = ?", m.RiskID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return tx.Create(m).Error
	})
}

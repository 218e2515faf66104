package store

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"time"

	"gorm.io/gorm"
)

// CreateAudit 创建一个审计。
func (s *Store) CreateAudit(ctx context.Context, audit *models.Audit) error {
	return s.db(ctx).Create(audit).Error
}

// ListAudits 按创建时间倒序返回审计及其发现。
func (s *Store) ListAudits(ctx context.Context) ([]models.Audit, error) {
	var out []models.Audit
	err := s.db(ctx).Preload("Findings").Order("created_at DESC").Order("id").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAudit 通过 ID 查找审计并加载发现。
func (s *Store) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	var audit models.Audit
	err := s.db(ctx).Preload("Findings", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ?", id).First(&audit).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &audit, nil
}

// AddFinding 记录一条发现；审计仍处于 pending 时转为 in_progress。
func (s *Store) AddFinding(ctx context.Context, finding *models.AuditFinding) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var audit models.Audit
		if err := tx.Where("id = ?", finding.AuditID).First(&audit).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Create(finding).Error; err != nil {
			return err
		}
		if audit.Status == models.AuditPending {
			return tx.Model(&audit).Update("status", models.AuditInProgress).Error
		}
		return nil
	})
}

// CompleteAudit 将审计标记为完成并记录总结。
func (s *Store) CompleteAudit(ctx context.Context, id, summary string) (*models.Audit, error) {
	now := time.Now().UTC()
	res := s.db(ctx).Model(&models.Audit{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.AuditCompleted,
		"summary":      summary,
		"completed_at": now,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetAudit(ctx, id)
}

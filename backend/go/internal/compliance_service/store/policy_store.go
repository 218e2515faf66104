package store

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"

	"gorm.io/gorm"
)

func orderedVersions(db *gorm.DB) *gorm.DB {
	return db.Order("version_number ASC")
}

// CreatePolicy 在一个事务中创建政策及其第一个版本。
func (s *Store) CreatePolicy(ctx context.Context, policy *models.Policy, first *models.PolicyVersion) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Versions", "Distributions").Create(policy).Error; err != nil {
			return err
		}
		first.PolicyID = policy.ID
		first.VersionNumber = policy.CurrentVersion
		if err := tx.Create(first).Error; err != nil {
			return err
		}
		policy.Versions = []models.PolicyVersion{*first}
		return nil
	})
}

// ListPolicies 按更新时间倒序返回政策。
func (s *Store) ListPolicies(ctx context.Context) ([]models.Policy, error) {
	var out []models.Policy
	err := s.db(ctx).
		Preload("Versions", orderedVersions).
		Preload("Distributions").
		Order("updated_at DESC").Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetPolicy 通过 ID 查找政策并加载版本和分发记录。
func (s *Store) GetPolicy(ctx context.Context, id string) (*models.Policy, error) {
	var p models.Policy
	err := s.db(ctx).
		Preload("Versions", orderedVersions).
		Preload("Distributions").
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// AddVersion 新增一个版本并递增 current_version。
func (s *Store) AddVersion(ctx context.Context, policyID string, v *models.PolicyVersion) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Policy
		if err := tx.Where("id = ?", policyID).First(&p).Error; err != nil {
			return notFound(err)
		}
		next := p.CurrentVersion + 1
		if err := tx.Model(&p).Update("current_version", next).Error; err != nil {
			return err
		}
		v.PolicyID = policyID
		v.VersionNumber = next
		return tx.Create(v).Error
	})
}

// SetPolicyStatus 更新政策状态。
func (s *Store) SetPolicyStatus(ctx context.Context, id, status string) error {
	res := s.db(ctx).Model(&models.Policy{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDistributions 批量写入分发记录。
func (s *Store) CreateDistributions(ctx context.Context, ds []models.PolicyDistribution) error {
	if len(ds) == 0 {
		return nil
	}
	return s.db(ctx).Create(&ds).Error
}

package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// RiskScaleMin 和 RiskScaleMax 是可能性与影响的取值范围。
	RiskScaleMin = 1
	RiskScaleMax = 5

	RiskStatusIdentified = "identified"
)

// RiskScore 计算风险分值：可能性 × 影响。
func RiskScore(likelihood, impact int) int {
	return likelihood * impact
}

// RiskLevel 将分值映射为等级：16 及以上为 high，9-15 为 medium，其余为 low。
func RiskLevel(score int) string {
	switch {
	case score >= 16:
		return "high"
	case score >= 9:
		return "medium"
	default:
		return "low"
	}
}

// Risk 是风险登记册中的一条记录。
type Risk struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string           `gorm:"type:varchar(500);not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Category    string           `gorm:"type:varchar(255)" json:"category"`
	Likelihood  int              `gorm:"not null" json:"likelihood"`
	Impact      int              `gorm:"not null" json:"impact"`
	Score       int              `gorm:"not null;index" json:"score"`
	Status      string           `gorm:"type:varchar(50);default:'identified'" json:"status"`
	Owner       string           `gorm:"type:varchar(255)" json:"owner"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Mitigations []RiskMitigation `gorm:"foreignKey:RiskID;constraint:OnDelete:CASCADE" json:"mitigations,omitempty"`
}

// BeforeSave 保证分值始终等于可能性 × 影响。
func (r *Risk) BeforeSave(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = RiskStatusIdentified
	}
	r.Score = RiskScore(r.Likelihood, r.Impact)
	return nil
}

// RiskMitigation 是针对风险的缓解措施。
type RiskMitigation struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RiskID     string     `gorm:"type:varchar(36);index;not null" json:"risk_id"`
	Action     string     `gorm:"type:text;not null" json:"action"`
	Status     string     `gorm:"type:varchar(50);default:'planned'" json:"status"`
	AssignedTo string     `gorm:"type:varchar(255)" json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
	CreatedAt  time.Time  `json:"created_at"`
}

// BeforeCreate 在写入前生成 ID 和默认状态。
func (m *RiskMitigation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Status == "" {
		m.Status = "planned"
	}
	return nil
}

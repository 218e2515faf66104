package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditStatus 定义了审计的生命周期状态。
type AuditStatus string

const (
	AuditPending    AuditStatus = "pending"
	AuditInProgress AuditStatus = "in_progress"
	AuditCompleted  AuditStatus = "completed"
)

// Severity 是审计发现的严重级别。
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities 按从高到低的顺序列出所有严重级别。
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank 返回严重级别的排序值，critical 为 0，未知级别排在最后。
func (s Severity) Rank() int {
	for i, v := range Severities {
		if v == s {
			return i
		}
	}
	return len(Severities)
}

// Valid 判断是否为已知的严重级别。
func (s Severity) Valid() bool {
	return s.Rank() < len(Severities)
}

// Audit 是针对某个框架的一次合规审计。
type Audit struct {
	ID          string               `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string               `gorm:"type:varchar(500);not null" json:"title"`
	FrameworkID string               `gorm:"type:varchar(36);index;not null" json:"framework_id"`
	Framework   *ComplianceFramework `gorm:"foreignKey:FrameworkID" json:"-"`
	Scope       string               `gorm:"type:text" json:"scope"`
	Status      AuditStatus          `gorm:"type:varchar(50);default:'pending'" json:"status"`
	Summary     string               `gorm:"type:text" json:"summary"`
	CreatedAt   time.Time            `json:"created_at"`
	CompletedAt *time.Time           `json:"completed_at"`
	Findings    []AuditFinding       `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE" json:"findings,omitempty"`
}

// BeforeCreate 在写入前生成 ID 和默认状态。
func (a *Audit) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = AuditPending
	}
	return nil
}

// AuditFinding 是审计中发现的针对控制项的差距。
type AuditFinding struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuditID        string    `gorm:"type:varchar(36);index;not null" json:"audit_id"`
	ControlID      string    `gorm:"type:varchar(50)" json:"control_id"`
	Title          string    `gorm:"type:varchar(500);not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Severity       Severity  `gorm:"type:varchar(20);default:'medium'" json:"severity"`
	Status         string    `gorm:"type:varchar(50);default:'open'" json:"status"`
	Recommendation string    `gorm:"type:text" json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate 在写入前生成 ID 和默认值。
func (f *AuditFinding) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	if f.Severity == "" {
		f.Severity = SeverityMedium
	}
	if f.Status == "" {
		f.Status = "open"
	}
	return nil
}

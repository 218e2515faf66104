package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PolicyDraft    = "draft"
	PolicyApproved = "approved"
)

// Policy 是一份合规政策，内容保存在版本中。
type Policy struct {
	ID             string               `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title          string               `gorm:"type:varchar(500);not null" json:"title"`
	FrameworkID    *string              `gorm:"type:varchar(36);index" json:"framework_id"`
	Category       string               `gorm:"type:varchar(255)" json:"category"`
	Status         string               `gorm:"type:varchar(50);default:'draft'" json:"status"`
	CurrentVersion int                  `gorm:"default:1" json:"current_version"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Versions       []PolicyVersion      `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
	Distributions  []PolicyDistribution `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"distributions,omitempty"`
}

// BeforeCreate 在写入前生成 ID 和默认值。
func (p *Policy) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = PolicyDraft
	}
	if p.CurrentVersion == 0 {
		p.CurrentVersion = 1
	}
	return nil
}

// LatestVersion 返回版本号最大的版本，没有版本时返回 nil。
func (p *Policy) LatestVersion() *PolicyVersion {
	var latest *PolicyVersion
	for i := range p.Versions {
		if latest == nil || p.Versions[i].VersionNumber > latest.VersionNumber {
			latest = &p.Versions[i]
		}
	}
	return latest
}

// PolicyVersion 是政策内容的一个版本。
type PolicyVersion struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PolicyID      string    `gorm:"type:varchar(36);index;not null" json:"policy_id"`
	VersionNumber int       `gorm:"not null" json:"version_number"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ChangeSummary string    `gorm:"type:text" json:"change_summary"`
	CreatedBy     string    `gorm:"type:varchar(255);default:'system'" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeforeCreate 在写入前生成 ID 和默认作者。
func (v *PolicyVersion) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	if v.CreatedBy == "" {
		v.CreatedBy = "system"
	}
	return nil
}

// DistributionChannel 是政策分发渠道。
type DistributionChannel string

const (
	ChannelEmail      DistributionChannel = "email"
	ChannelTeams      DistributionChannel = "teams"
	ChannelSharePoint DistributionChannel = "sharepoint"
)

// Valid 判断是否为已知的分发渠道。
func (c DistributionChannel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelTeams, ChannelSharePoint:
		return true
	}
	return false
}

// PolicyDistribution 记录政策向某个接收者的分发。
type PolicyDistribution struct {
	ID        string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PolicyID  string              `gorm:"type:varchar(36);index;not null" json:"policy_id"`
	Channel   DistributionChannel `gorm:"type:varchar(50);not null" json:"channel"`
	Recipient string              `gorm:"type:varchar(500);not null" json:"recipient"`
	Status    string              `gorm:"type:varchar(50);default:'pending'" json:"status"`
	SentAt    *time.Time          `json:"sent_at"`
	CreatedAt time.Time           `json:"created_at"`
}

// BeforeCreate 在写入前生成 ID 和默认状态。
func (d *PolicyDistribution) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	if d.Status == "" {
		d.Status = "pending"
	}
	return nil
}

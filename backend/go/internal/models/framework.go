package models

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

// ComplianceFramework 表示一个合规框架，例如 GDPR、ISO 27001。
type ComplianceFramework struct {
	ID          string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string             `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Version     string             `gorm:"type:varchar(50);default:'1.0'" json:"version"`
	Description string             `gorm:"type:text" json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
	Controls    []FrameworkControl `gorm:"foreignKey:FrameworkID;constraint:OnDelete:CASCADE" json:"controls,omitempty"`
}

// BeforeCreate 在写入前生成 ID。
func (f *ComplianceFramework) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	if f.Version == "" {
		f.Version = "1.0"
	}
	return nil
}

// Categories 返回框架中出现的控制项分类，已排序去重。
func (f *ComplianceFramework) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range f.Controls {
		if c.Category == "" {
			continue
		}
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		out = append(out, c.Category)
	}
	sort.Strings(out)
	return out
}

// ControlsByCategory 返回指定分类下的控制项。
func (f *ComplianceFramework) ControlsByCategory(category string) []FrameworkControl {
	var out []FrameworkControl
	for _, c := range f.Controls {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}

// FrameworkControl 是框架中的单个控制项，ControlID 在框架内唯一 (例如 "A.5.1")。
type FrameworkControl struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"-"`
	FrameworkID string `gorm:"type:varchar(36);index;not null" json:"framework_id"`
	ControlID   string `gorm:"type:varchar(50);not null" json:"control_id"`
	Title       string `gorm:"type:varchar(500);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(255)" json:"category"`
	Position    int    `gorm:"default:0" json:"-"` // 在框架文件中的顺序
}

// BeforeCreate 在写入前生成 ID。
func (c *FrameworkControl) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

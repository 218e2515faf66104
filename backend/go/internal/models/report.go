package models

import (
	"time"

	"gorm.io/gorm"
)

// DocType 是可生成的文档类型。
type DocType string

const (
	DocAuditReport      DocType = "audit_report"
	DocRiskRegister     DocType = "risk_register"
	DocPolicyDocument   DocType = "policy_document"
	DocExecutiveSummary DocType = "executive_summary"
)

// DocFormat 是文档的文件格式。
type DocFormat string

const (
	FormatDocx DocFormat = "docx"
	FormatXlsx DocFormat = "xlsx"
	FormatPptx DocFormat = "pptx"
)

// ContentType 返回格式对应的 MIME 类型。
func (f DocFormat) ContentType() string {
	switch f {
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXlsx:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPptx:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
	return "application/octet-stream"
}

// Report 记录一个已生成的文档。
type Report struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title      string    `gorm:"type:varchar(500);not null" json:"title"`
	ReportType DocType   `gorm:"type:varchar(50);not null" json:"report_type"`
	Format     DocFormat `gorm:"type:varchar(10);not null" json:"format"`
	FilePath   string    `gorm:"type:varchar(1000)" json:"file_path"`
	SourceID   string    `gorm:"type:varchar(36)" json:"source_id"`
	Status     string    `gorm:"type:varchar(50);default:'generated'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate 在写入前生成 ID 和默认状态。
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = "generated"
	}
	return nil
}

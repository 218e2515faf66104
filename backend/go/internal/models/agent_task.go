package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskStatus 定义了 agent 任务的几种可能状态。
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Terminal 判断状态是否为终态。
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// AgentTask 是一次 agent 调用的生命周期记录。
// 状态从 running 只转换一次到 completed 或 failed，转换时 Iterations / TokensUsed 被固定。
type AgentTask struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Instruction string     `gorm:"type:text;not null" json:"instruction" bson:"instruction"`
	Status      TaskStatus `gorm:"type:varchar(50);default:'running';index" json:"status" bson:"status"`
	Result      string     `gorm:"type:text" json:"result" bson:"result"`
	Iterations  int        `gorm:"default:0" json:"iterations" bson:"iterations"`
	TokensUsed  int        `gorm:"default:0" json:"tokens_used" bson:"tokens_used"`
	Error       string     `gorm:"type:text" json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	CompletedAt *time.Time `json:"completed_at" bson:"completed_at,omitempty"`
}

// BeforeCreate 在写入前生成 ID 和初始状态。
func (t *AgentTask) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	if t.Status == "" {
		t.Status = TaskStatusRunning
	}
	return nil
}

// ToolExecution 记录一次工具调用及其结果。
type ToolExecution struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TaskID     string         `gorm:"type:varchar(36);index" json:"task_id"`
	Iteration  int            `json:"iteration"`
	ToolUseID  string         `gorm:"type:varchar(100)" json:"tool_use_id"`
	Name       string         `gorm:"type:varchar(100);index" json:"name"`
	Input      datatypes.JSON `json:"input"`
	Output     string         `gorm:"type:text" json:"output"`
	IsError    bool           `json:"is_error"`
	DurationMs int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// BeforeCreate 在写入前生成 ID。
func (e *ToolExecution) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// Transcript 是一次 agent 调用完整消息记录的归档文档，保存在 MongoDB 中。
type Transcript struct {
	TaskID     string     `bson:"_id" json:"task_id"`
	System     string     `bson:"system" json:"system"`
	Messages   []Message  `bson:"messages" json:"messages"`
	Status     TaskStatus `bson:"status" json:"status"`
	Iterations int        `bson:"iterations" json:"iterations"`
	TokensUsed int        `bson:"tokens_used" json:"tokens_used"`
	ArchivedAt time.Time  `bson:"archived_at" json:"archived_at"`
}

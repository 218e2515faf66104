package models

import "time"

// TaskLogStatus 是 agent 任务进度事件的类型。
type TaskLogStatus string

const (
	StatusThinking    TaskLogStatus = "THINKING"
	StatusCallingTool TaskLogStatus = "CALLING_TOOL"
	StatusObserving   TaskLogStatus = "OBSERVING"
	StatusFinished    TaskLogStatus = "FINISHED"
	StatusError       TaskLogStatus = "ERROR"
)

// TaskLogEntry 是发送到 Kafka agent_logs 主题的任务进度事件。
// CorrelationID 在工具事件中为 tool_use ID，其余事件为空。
type TaskLogEntry struct {
	TaskID        string        `json:"task_id"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Iteration     int           `json:"iteration"`
	Timestamp     time.Time     `json:"timestamp"`
	Status        TaskLogStatus `json:"status"`
	Message       string        `json:"message"`
	Content       interface{}   `json:"content,omitempty"`
}

// DistributionRequest 是发送到 policy_distributions 主题的分发请求，
// 由外部的邮件 / Teams / SharePoint 发送程序消费。
type DistributionRequest struct {
	DistributionID string              `json:"distribution_id"`
	PolicyID       string              `json:"policy_id"`
	PolicyTitle    string              `json:"policy_title"`
	Version        int                 `json:"version"`
	Channel        DistributionChannel `json:"channel"`
	Recipient      string              `json:"recipient"`
	RequestedAt    time.Time           `json:"requested_at"`
}

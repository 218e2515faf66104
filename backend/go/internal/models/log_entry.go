package models

// LogEntry 描述了服务输出的一条结构化日志。
type LogEntry struct {
	// ServiceName 是产生日志的组件，例如 "compliance-service"、"agent-engine"。
	ServiceName string `json:"service_name"`

	// TraceID 串联同一次请求或同一个 agent 任务的所有日志，agent 使用任务 ID。
	TraceID string `json:"trace_id,omitempty"`

	UserID string `json:"user_id,omitempty"`

	RequestInfo *RequestInfo `json:"request_info,omitempty"`

	Error *ErrorInfo `json:"error,omitempty"`

	// Payload 存放与业务相关的结构化数据，例如工具名、迭代次数。
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo 存储了关于 HTTP 请求的上下文信息。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	Type       string `json:"type,omitempty"`        // 例如 "provider_error", "tool_error", "database_error"
	StatusCode int    `json:"status_code,omitempty"` // 相关的HTTP状态码
}

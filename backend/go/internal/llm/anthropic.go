package llm

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// Anthropic 是 Anthropic Messages API 的客户端。统一的内容块格式与该 API 一一对应。
type Anthropic struct {
	client *resty.Client
	model  string
}

type anthropicTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type anthropicRequest struct {
	Model     string           `json:"model"`
	System    string           `json:"system,omitempty"`
	MaxTokens int              `json:"max_tokens"`
	Tools     []anthropicTool  `json:"tools,omitempty"`
	Messages  []models.Message `json:"messages"`
}

type anthropicResponse struct {
	Content    []models.ContentBlock `json:"content"`
	StopReason string                `json:"stop_reason"`
	Usage      models.Usage          `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropic 创建一个新的 Anthropic 客户端，baseURL 为空时使用官方地址。
func NewAnthropic(apiKey, model, baseURL string) *Anthropic {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Minute).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("content-type", "application/json")
	return &Anthropic{client: client, model: model}
}

// CreateMessage 调用 /v1/messages。
func (a *Anthropic) CreateMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	body := anthropicRequest{
		Model:     a.model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
		Messages:  req.Messages,
	}
	if req.Model != "" {
		body.Model = req.Model
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: inputSchema(t),
		})
	}

	var out anthropicResponse
	var apiErr anthropicError
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("failed to call anthropic messages api: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("anthropic api error (%d %s): %s", resp.StatusCode(), apiErr.Error.Type, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("anthropic api error: status %d", resp.StatusCode())
	}

	return &models.ChatResponse{
		Content:    out.Content,
		StopReason: out.StopReason,
		Usage:      out.Usage,
	}, nil
}

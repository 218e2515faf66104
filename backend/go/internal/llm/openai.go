package llm

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI 是一个用于 OpenAI Chat Completions API 的客户端。
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI 创建一个新的 OpenAI 客户端，baseURL 可指向兼容的服务。
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// ConvertToolsToOpenAI 将 mcp 工具列表转换为 OpenAI 的函数工具。
func ConvertToolsToOpenAI(tools []mcp.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  inputSchema(t),
			},
		})
	}
	return out
}

// CreateMessage 使用 Chat Completions 生成一轮回复。
func (o *OpenAI) CreateMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	model := o.model
	if req.Model != "" {
		model = req.Model
	}
	openaiReq := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  toOpenAIMessages(req.System, req.Messages),
		MaxTokens: req.MaxTokens,
	}
	if len(req.Tools) > 0 {
		openaiReq.Tools = ConvertToolsToOpenAI(req.Tools)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	return fromOpenAIResponse(&resp), nil
}

// toOpenAIMessages 转换消息历史。工具结果在 OpenAI 中是独立的 role=tool 消息。
func toOpenAIMessages(system string, msgs []models.Message) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		var texts []string
		var calls []openai.ToolCall
		for _, b := range m.Content {
			switch b.Type {
			case models.BlockText:
				texts = append(texts, b.Text)
			case models.BlockToolUse:
				calls = append(calls, openai.ToolCall{
					ID:   b.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.Name,
						Arguments: string(b.Input),
					},
				})
			case models.BlockToolResult:
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    b.Content,
					ToolCallID: b.ToolUseID,
				})
			}
		}
		if len(texts) == 0 && len(calls) == 0 {
			continue
		}
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:      role,
			Content:   strings.Join(texts, "\n"),
			ToolCalls: calls,
		})
	}
	return out
}

func fromOpenAIResponse(resp *openai.ChatCompletionResponse) *models.ChatResponse {
	out := &models.ChatResponse{
		StopReason: models.StopEndTurn,
		Usage: models.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]
	if choice.Message.Content != "" {
		out.Content = append(out.Content, models.TextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		input := json.RawMessage(call.Function.Arguments)
		if !json.Valid(input) {
			input = nil
		}
		out.Content = append(out.Content, models.ToolUseBlock(call.ID, call.Function.Name, input))
	}
	switch choice.FinishReason {
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		out.StopReason = models.StopToolUse
	case openai.FinishReasonLength:
		out.StopReason = models.StopMaxTokens
	}
	return out
}

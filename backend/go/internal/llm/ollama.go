package llm

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个用于本地 Ollama 服务的客户端。
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama 创建一个新的 Ollama 客户端，baseURL 为空时默认为 "http://localhost:11434"。
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	hc := &http.Client{Timeout: 5 * time.Minute}
	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// ConvertToolsToOllama 将 mcp 工具转换为 Ollama 工具。
// 通过 JSON 中转，Ollama 的工具结构与 JSON Schema 同构。
func ConvertToolsToOllama(tools []mcp.Tool) (olla.Tools, error) {
	var out olla.Tools
	for _, t := range tools {
		raw, err := json.Marshal(map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  inputSchema(t),
			},
		})
		if err != nil {
			return nil, err
		}
		var tool olla.Tool
		if err := json.Unmarshal(raw, &tool); err != nil {
			return nil, fmt.Errorf("error converting tool '%s': %w", t.Name, err)
		}
		out = append(out, tool)
	}
	return out, nil
}

// CreateMessage 调用 /api/chat（非流式）。
func (o *Ollama) CreateMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	model := o.model
	if req.Model != "" {
		model = req.Model
	}
	tools, err := ConvertToolsToOllama(req.Tools)
	if err != nil {
		return nil, err
	}
	msgs, err := toOllamaMessages(req.System, req.Messages)
	if err != nil {
		return nil, err
	}
	stream := false
	chatReq := &olla.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
		Tools:    tools,
	}
	if req.MaxTokens > 0 {
		chatReq.Options = map[string]interface{}{"num_predict": req.MaxTokens}
	}

	var result *olla.ChatResponse
	err = o.client.Chat(ctx, chatReq, func(resp olla.ChatResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to chat with ollama: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("ollama returned no response")
	}
	return fromOllamaResponse(result)
}

func toOllamaMessages(system string, msgs []models.Message) ([]olla.Message, error) {
	var out []olla.Message
	if system != "" {
		out = append(out, olla.Message{Role: "system", Content: system})
	}
	for _, m := range msgs {
		var texts []string
		var calls []olla.ToolCall
		for _, b := range m.Content {
			switch b.Type {
			case models.BlockText:
				texts = append(texts, b.Text)
			case models.BlockToolUse:
				var call olla.ToolCall
				call.Function.Name = b.Name
				if err := json.Unmarshal(b.Input, &call.Function.Arguments); err != nil {
					return nil, fmt.Errorf("invalid tool input for '%s': %w", b.Name, err)
				}
				calls = append(calls, call)
			case models.BlockToolResult:
				out = append(out, olla.Message{Role: "tool", Content: b.Content})
			}
		}
		if len(texts) == 0 && len(calls) == 0 {
			continue
		}
		out = append(out, olla.Message{
			Role:      string(m.Role),
			Content:   strings.Join(texts, "\n"),
			ToolCalls: calls,
		})
	}
	return out, nil
}

func fromOllamaResponse(resp *olla.ChatResponse) (*models.ChatResponse, error) {
	out := &models.ChatResponse{
		StopReason: models.StopEndTurn,
		Usage: models.Usage{
			InputTokens:  resp.PromptEvalCount,
			OutputTokens: resp.EvalCount,
		},
	}
	if resp.Message.Content != "" {
		out.Content = append(out.Content, models.TextBlock(resp.Message.Content))
	}
	for i, call := range resp.Message.ToolCalls {
		input, err := json.Marshal(call.Function.Arguments)
		if err != nil {
			return nil, err
		}
		id := fmt.Sprintf("call_%d_%s", i, models.ShortID(models.NewID()))
		out.Content = append(out.Content, models.ToolUseBlock(id, call.Function.Name, input))
	}
	if len(resp.Message.ToolCalls) > 0 {
		out.StopReason = models.StopToolUse
	} else if resp.DoneReason == "length" {
		out.StopReason = models.StopMaxTokens
	}
	return out, nil
}

package llm

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mark3labs/mcp-go/mcp"
	"google.golang.org/api/option"
)

// Gemini 是一个用于 Gemini API 的客户端。
// Gemini 的函数调用没有 ID，这里为每次调用生成一个，并在回传结果时按 ID 找回函数名。
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini 创建一个新的 Gemini 客户端。
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Close 释放底层连接。
func (g *Gemini) Close() error {
	return g.client.Close()
}

// ConvertToolsToGemini 将 mcp 工具列表转换为 Gemini 的 FunctionDeclaration 列表。
func ConvertToolsToGemini(tools []mcp.Tool) ([]*genai.FunctionDeclaration, error) {
	var declarations []*genai.FunctionDeclaration
	for _, tool := range tools {
		declaration := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		params, err := toGeminiSchema(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("error converting parameters for tool '%s': %w", tool.Name, err)
		}
		declaration.Parameters = params
		declarations = append(declarations, declaration)
	}
	return declarations, nil
}

func toGeminiSchema(in mcp.ToolInputSchema) (*genai.Schema, error) {
	if len(in.Properties) == 0 {
		return nil, nil
	}
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   in.Required,
	}
	for name, param := range in.Properties {
		paramMap, ok := param.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid parameter format for %s", name)
		}
		prop := &genai.Schema{}
		if desc, ok := paramMap["description"].(string); ok {
			prop.Description = desc
		}
		if enum := stringList(paramMap["enum"]); len(enum) > 0 {
			prop.Enum = enum
		}
		paramType, ok := paramMap["type"].(string)
		if !ok {
			return nil, fmt.Errorf("parameter type not specified for %s", name)
		}
		switch paramType {
		case "string":
			prop.Type = genai.TypeString
		case "integer":
			prop.Type = genai.TypeInteger
		case "number":
			prop.Type = genai.TypeNumber
		case "boolean":
			prop.Type = genai.TypeBoolean
		case "array":
			prop.Type = genai.TypeArray
		case "object":
			prop.Type = genai.TypeObject
		default:
			return nil, fmt.Errorf("unsupported parameter type: %s", paramType)
		}
		schema.Properties[name] = prop
	}
	return schema, nil
}

// CreateMessage 以无状态方式调用 Gemini：历史放入 ChatSession，最后一条消息作为本轮输入。
func (g *Gemini) CreateMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("gemini: no messages to send")
	}
	name := g.model
	if req.Model != "" {
		name = req.Model
	}
	model := g.client.GenerativeModel(name)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if len(req.Tools) > 0 {
		decls, err := ConvertToolsToGemini(req.Tools)
		if err != nil {
			return nil, err
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := toGeminiContents(req.Messages)
	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with gemini: %w", err)
	}
	return fromGeminiResponse(resp), nil
}

// toGeminiContents 转换消息历史，tool_result 转为 FunctionResponse。
func toGeminiContents(msgs []models.Message) []*genai.Content {
	names := make(map[string]string)
	var out []*genai.Content
	for _, m := range msgs {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		c := &genai.Content{Role: role}
		for _, b := range m.Content {
			switch b.Type {
			case models.BlockText:
				c.Parts = append(c.Parts, genai.Text(b.Text))
			case models.BlockToolUse:
				names[b.ID] = b.Name
				var args map[string]interface{}
				_ = json.Unmarshal(b.Input, &args)
				c.Parts = append(c.Parts, genai.FunctionCall{Name: b.Name, Args: args})
			case models.BlockToolResult:
				c.Parts = append(c.Parts, genai.FunctionResponse{
					Name:     names[b.ToolUseID],
					Response: toolResponse(b.Content),
				})
			}
		}
		out = append(out, c)
	}
	return out
}

// toolResponse 把工具输出包装成 Gemini 需要的对象。
func toolResponse(content string) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		return obj
	}
	var v interface{}
	if err := json.Unmarshal([]byte(content), &v); err == nil {
		return map[string]interface{}{"result": v}
	}
	return map[string]interface{}{"result": content}
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) *models.ChatResponse {
	out := &models.ChatResponse{StopReason: models.StopEndTurn}
	if resp == nil {
		return out
	}
	if resp.UsageMetadata != nil {
		out.Usage = models.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		return out
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			switch v := p.(type) {
			case genai.Text:
				out.Content = append(out.Content, models.TextBlock(string(v)))
			case genai.FunctionCall:
				input, _ := json.Marshal(v.Args)
				out.Content = append(out.Content, models.ToolUseBlock("call_"+models.NewID(), v.Name, input))
			}
		}
	}
	switch {
	case len(out.ToolUses()) > 0:
		out.StopReason = models.StopToolUse
	case cand.FinishReason == genai.FinishReasonMaxTokens:
		out.StopReason = models.StopMaxTokens
	}
	return out
}

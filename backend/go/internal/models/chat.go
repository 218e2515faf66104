package models

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Role 是对话消息的角色。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType 是消息内容块的类型。
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// 模型返回的停止原因，各提供方的适配器负责映射到这两个值之一。
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// ContentBlock 是消息中的一个有序内容块：文本、工具调用或工具结果。
type ContentBlock struct {
	Type BlockType `json:"type" bson:"type"`

	// text
	Text string `json:"text,omitempty" bson:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty" bson:"id,omitempty"`
	Name  string          `json:"name,omitempty" bson:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty" bson:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty" bson:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty" bson:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty" bson:"is_error,omitempty"`
}

// TextBlock 构造一个文本块。
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock 构造一个工具调用块，input 为空时使用 {}。
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock 构造一个工具结果块。
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// Message 是对话历史中的一条消息。
type Message struct {
	Role    Role           `json:"role" bson:"role"`
	Content []ContentBlock `json:"content" bson:"content"`
}

// UserText 构造一条纯文本的用户消息。
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// ChatRequest 是对语言模型的一次调用。
type ChatRequest struct {
	Model     string
	System    string
	Tools     []mcp.Tool
	Messages  []Message
	MaxTokens int
}

// Usage 是一次调用消耗的 token 数。
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total 返回输入与输出 token 之和。
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ChatResponse 是语言模型的一次回复。
type ChatResponse struct {
	Content    []ContentBlock
	StopReason string
	Usage      Usage
}

// Texts 按出现顺序返回所有文本块的内容。
func (r *ChatResponse) Texts() []string {
	var out []string
	for _, b := range r.Content {
		if b.Type == BlockText {
			out = append(out, b.Text)
		}
	}
	return out
}

// Text 返回所有文本块以换行连接后的结果。
func (r *ChatResponse) Text() string {
	return strings.Join(r.Texts(), "\n")
}

// ToolUses 按出现顺序返回所有工具调用块。
func (r *ChatResponse) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, b := range r.Content {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

package llm

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/pkg/circuitbreaker"
	"context"
	"fmt"
)

// ChatModel 定义了所有大型语言模型客户端必须实现的通用接口。
// 各提供商的适配器负责把统一的消息格式与自己的 API 互相转换。
type ChatModel interface {
	CreateMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

// NewClient 是一个工厂函数，根据配置中的 provider 创建对应的客户端。
func NewClient(ctx context.Context, cfg config.LLMConfig) (ChatModel, error) {
	p := cfg.Active()
	switch cfg.Provider {
	case "", "anthropic":
		return NewAnthropic(p.APIKey, p.Model, p.BaseURL), nil
	case "openai":
		return NewOpenAI(p.APIKey, p.Model, p.BaseURL), nil
	case "gemini":
		return NewGemini(ctx, p.APIKey, p.Model)
	case "ollama":
		return NewOllama(p.Model, p.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// breakerModel 用熔断器包装一个 ChatModel，熔断打开时直接返回 ErrCircuitOpen。
type breakerModel struct {
	next ChatModel
	cb   circuitbreaker.CircuitBreaker
}

// WithCircuitBreaker 为 ChatModel 加上熔断保护。
func WithCircuitBreaker(m ChatModel, cb circuitbreaker.CircuitBreaker) ChatModel {
	return &breakerModel{next: m, cb: cb}
}

func (b *breakerModel) CreateMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.ChatResponse), nil
}

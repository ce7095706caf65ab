// Package llm 按配置创建 Eino ChatModel（eino-ext openai、openai-go、anthropic-sdk-go）
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"edu-lesson-ai-api/internal/config"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.LLMConfig) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	chatModel, err := newChatModel(ctx, name, providerCfg)
	if err != nil {
		return nil, err
	}

	f.models[name] = chatModel
	return chatModel, nil
}

func newChatModel(ctx context.Context, name string, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	switch cfg.Type {
	case config.ProviderTypeOpenAI, "":
		var maxTokens *int
		if cfg.MaxTokens > 0 {
			maxTokens = &cfg.MaxTokens
		}
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   maxTokens,
			Temperature: ptrFloat32(float32(cfg.Temperature)),
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
		}
		return chatModel, nil
	case config.ProviderTypeOpenAISDK:
		return NewOpenAISDKChatModel(cfg), nil
	case config.ProviderTypeAnthropic:
		return NewAnthropicChatModel(cfg), nil
	default:
		return nil, fmt.Errorf("provider %s has unsupported type %q", name, cfg.Type)
	}
}

func ptrFloat32(f float32) *float32 {
	return &f
}

// Package llm 提供 LLM 客户端工厂与语音转写
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/config"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例（回答生成与关键词抽取各用一个 provider）
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

var _ chat.ChatModelFactory = (*EinoFactory)(nil)

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.LLMConfig) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，未指定时返回默认 provider
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

	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	mc := &openai.ChatModelConfig{
		APIKey:      providerCfg.APIKey,
		BaseURL:     providerCfg.BaseURL,
		Model:       providerCfg.Model,
		Temperature: ptr(float32(providerCfg.Temperature)),
		Timeout:     providerCfg.Timeout,
	}
	if providerCfg.MaxTokens > 0 {
		mc.MaxTokens = ptr(providerCfg.MaxTokens)
	}

	chatModel, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// ProviderModel 返回 provider 对应的模型名，用于统计与健康信息
func (f *EinoFactory) ProviderModel(name string) string {
	if name == "" {
		name = f.config.DefaultProvider
	}
	return f.config.Providers[name].Model
}

func ptr[T any](v T) *T {
	return &v
}

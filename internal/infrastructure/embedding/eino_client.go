package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"monk-ai-api/internal/config"
)

// NewEinoEmbedder 创建基于 Eino OpenAI 适配器的 Embedder（OpenAI 兼容的 /embeddings 接口）
func NewEinoEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("embedding endpoint is required")
	}

	ec := &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.Endpoint,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.Dimension > 0 {
		dim := cfg.Dimension
		ec.Dimensions = &dim
	}

	embedder, err := openai.NewEmbedder(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino embedder: %w", err)
	}

	return embedder, nil
}

// NewEmbedder 按配置选择实现；lruSize > 0 时套一层进程内缓存
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig, lruSize int) (embedding.Embedder, error) {
	var (
		base embedding.Embedder
		err  error
	)
	switch cfg.Provider {
	case "openai":
		base, err = NewEinoEmbedder(ctx, cfg)
	case "", "http":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("embedding endpoint is required")
		}
		base = NewClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if lruSize <= 0 {
		return base, nil
	}
	return NewCachedEmbedder(base, lruSize)
}

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"monk-ai-api/internal/domain/service"
	apperrors "monk-ai-api/pkg/errors"
)

// ChatModelFactory 按 provider 名称获取对话模型
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// Generator 单次调用 LLM 生成回答，不做本地重试
type Generator struct {
	models   ChatModelFactory
	provider string
	timeout  time.Duration
}

func NewGenerator(models ChatModelFactory, provider string, timeout time.Duration) *Generator {
	return &Generator{models: models, provider: provider, timeout: timeout}
}

// Generate 返回回答正文；网络错误、超时或空内容均视为生成失败
func (g *Generator) Generate(ctx context.Context, msgs []*schema.Message) (string, error) {
	cm, err := g.models.Get(ctx, g.provider)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeGenerationFailed, "chat model unavailable")
	}

	ctx = service.WithLLMCall(ctx, service.PurposeAnswer, g.provider)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := cm.Generate(ctx, msgs)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeGenerationFailed, "answer generation failed")
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", apperrors.New(apperrors.CodeGenerationFailed, "answer generation returned empty content")
	}
	return strings.TrimSpace(resp.Content), nil
}

// Package service 定义跨层共享的 LLM 调用上下文与用量记录端口
package service

import (
	"context"
	"strings"
)

const unknown = "unknown"

// 调用用途，作为指标与用量日志的维度
const (
	PurposeAnswer   = "answer"
	PurposeKeywords = "keywords"
)

// LLMCall 一次模型调用的归属
type LLMCall struct {
	Purpose  string
	Provider string
}

type llmCallKey struct{}

// WithLLMCall 标记后续模型调用的用途与 provider；空值不覆盖已有标记
func WithLLMCall(ctx context.Context, purpose, provider string) context.Context {
	call := LLMCallFromContext(ctx)
	if p := strings.TrimSpace(purpose); p != "" {
		call.Purpose = p
	}
	if p := strings.TrimSpace(provider); p != "" {
		call.Provider = p
	}
	return context.WithValue(ctx, llmCallKey{}, call)
}

// LLMCallFromContext 读取调用标记，缺失字段为 "unknown"
func LLMCallFromContext(ctx context.Context) LLMCall {
	call := LLMCall{Purpose: unknown, Provider: unknown}
	if ctx == nil {
		return call
	}
	if v, ok := ctx.Value(llmCallKey{}).(LLMCall); ok {
		if v.Purpose != "" {
			call.Purpose = v.Purpose
		}
		if v.Provider != "" {
			call.Provider = v.Provider
		}
	}
	return call
}

// LLMUsage 一次调用的 token 用量与耗时
type LLMUsage struct {
	LLMCall
	Model string

	PromptTokens     int
	CompletionTokens int
	DurationMs       int
}

// LLMUsageRecorder 记录用量；实现应为 best-effort，不阻塞问答流程
type LLMUsageRecorder interface {
	Record(ctx context.Context, usage LLMUsage) error
}

package callback

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"monk-ai-api/internal/domain/service"
	"monk-ai-api/pkg/logger"
	"monk-ai-api/pkg/metrics"
)

type startTimeKey struct{}

func newChatModelCallbackHandler(usageRecorder service.LLMUsageRecorder) *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

			call := service.LLMCallFromContext(ctx)
			attrs := []attribute.KeyValue{
				attribute.String("llm.purpose", call.Purpose),
				attribute.String("llm.provider", call.Provider),
				attribute.String("llm.model", modelNameFromInput(input)),
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}

			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, _ *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			call := service.LLMCallFromContext(ctx)
			modelName := modelNameFromOutput(output)
			elapsed := elapsedSeconds(ctx)

			metrics.LLMCallTotal.WithLabelValues(call.Purpose, call.Provider, modelName, "success").Inc()
			if elapsed > 0 {
				metrics.LLMCallDuration.WithLabelValues(call.Purpose, call.Provider, modelName).Observe(elapsed)
			}

			span := trace.SpanFromContext(ctx)
			if output != nil && output.TokenUsage != nil {
				promptTokens := output.TokenUsage.PromptTokens
				completionTokens := output.TokenUsage.CompletionTokens

				metrics.LLMTokensUsed.WithLabelValues(call.Purpose, call.Provider, modelName, "prompt").Add(float64(promptTokens))
				metrics.LLMTokensUsed.WithLabelValues(call.Purpose, call.Provider, modelName, "completion").Add(float64(completionTokens))
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", promptTokens),
					attribute.Int("llm.completion_tokens", completionTokens),
				)

				if usageRecorder != nil {
					_ = usageRecorder.Record(ctx, service.LLMUsage{
						LLMCall:          call,
						Model:            modelName,
						PromptTokens:     promptTokens,
						CompletionTokens: completionTokens,
						DurationMs:       int(elapsed * 1000),
					})
				}
			}
			span.End()
			return ctx
		},

		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			call := service.LLMCallFromContext(ctx)
			modelName := ""
			if info != nil {
				modelName = info.Type
			}

			metrics.LLMCallTotal.WithLabelValues(call.Purpose, call.Provider, modelName, "error").Inc()
			if d := elapsedSeconds(ctx); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(call.Purpose, call.Provider, modelName).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		},
	}
}

// LogUsageRecorder 把每次调用的 token 用量写入结构化日志
type LogUsageRecorder struct{}

func (LogUsageRecorder) Record(ctx context.Context, in service.LLMUsage) error {
	logger.Info(ctx, "llm usage",
		"purpose", in.Purpose,
		"provider", in.Provider,
		"model", in.Model,
		"prompt_tokens", in.PromptTokens,
		"completion_tokens", in.CompletionTokens,
		"duration_ms", in.DurationMs,
	)
	return nil
}

func elapsedSeconds(ctx context.Context) float64 {
	v := ctx.Value(startTimeKey{})
	start, ok := v.(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}

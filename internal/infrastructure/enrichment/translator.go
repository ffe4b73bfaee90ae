// Package enrichment 提供回答增强所需的外部服务：翻译与术语释义检索
package enrichment

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/config"
	"monk-ai-api/internal/infrastructure/persistence/redis"
)

const (
	defaultTargetLanguage = "hi"
	sourceLanguage        = "en"
)

var tracer = otel.Tracer("enrichment")

// GoogleTranslator Google Cloud Translation v2，客户端限速并可选 Redis 缓存
type GoogleTranslator struct {
	svc     *translate.Service
	target  string
	limiter *rate.Limiter
	cache   *redis.Cache
	ttl     time.Duration
}

var _ chat.Translator = (*GoogleTranslator)(nil)

// NewGoogleTranslator 创建翻译器；cache 为 nil 时不缓存
func NewGoogleTranslator(ctx context.Context, cfg *config.TranslationConfig, cache *redis.Cache, ttl time.Duration, opts ...option.ClientOption) (*GoogleTranslator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("translation api key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	svc, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate service: %w", err)
	}

	target := cfg.TargetLanguage
	if target == "" {
		target = defaultTargetLanguage
	}
	return &GoogleTranslator{
		svc:     svc,
		target:  target,
		limiter: newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cache:   cache,
		ttl:     ttl,
	}, nil
}

func (t *GoogleTranslator) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	return t.cache.GetOrLoad(ctx, t.cache.Key(t.target, text), t.ttl, func(ctx context.Context) (string, error) {
		return t.translate(ctx, text)
	})
}

func (t *GoogleTranslator) translate(ctx context.Context, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "enrichment.Translate",
		trace.WithAttributes(
			attribute.String("target", t.target),
			attribute.Int("chars", len(text)),
		))
	defer span.End()

	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := t.svc.Translations.List([]string{text}, t.target).
		Source(sourceLanguage).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	if len(resp.Translations) == 0 || strings.TrimSpace(resp.Translations[0].TranslatedText) == "" {
		return "", fmt.Errorf("translate returned no result")
	}
	return html.UnescapeString(resp.Translations[0].TranslatedText), nil
}

// newLimiter rps <= 0 表示不限速
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

package enrichment

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/config"
)

// SearchDefinitionLookup 取 Programmable Search 首条结果的摘要作为术语释义
type SearchDefinitionLookup struct {
	svc      *customsearch.Service
	engineID string
	limiter  *rate.Limiter
}

var _ chat.DefinitionLookup = (*SearchDefinitionLookup)(nil)

func NewSearchDefinitionLookup(ctx context.Context, cfg *config.KeywordsConfig, opts ...option.ClientOption) (*SearchDefinitionLookup, error) {
	if cfg.SearchAPIKey == "" || cfg.SearchEngineID == "" {
		return nil, fmt.Errorf("search api key and engine id are required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(cfg.SearchAPIKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}
	return &SearchDefinitionLookup{
		svc:      svc,
		engineID: cfg.SearchEngineID,
		limiter:  newLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// Lookup 无结果返回空串
func (l *SearchDefinitionLookup) Lookup(ctx context.Context, query string) (string, error) {
	ctx, span := tracer.Start(ctx, "enrichment.Lookup",
		trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}

	res, err := l.svc.Cse.List().
		Cx(l.engineID).
		Q(query).
		Num(1).
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("search request failed: %w", err)
	}
	for _, item := range res.Items {
		if item == nil {
			continue
		}
		if s := strings.Join(strings.Fields(item.Snippet), " "); s != "" {
			return s, nil
		}
	}
	return "", nil
}

package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"monk-ai-api/pkg/logger"
	"monk-ai-api/pkg/metrics"
)

const (
	DefaultTopKRetrieval = 15
	DefaultTopKRerank    = 3

	// fallbackRerankScore 重排不可用时所有候选的统一分数
	fallbackRerankScore = 0.5
)

var tracer = otel.Tracer("retrieval")

// Engine 两阶段检索：向量宽召回 + 交叉编码器重排
type Engine struct {
	index    Searcher
	reranker Reranker

	topKRetrieval int
	topKRerank    int
}

// NewEngine 创建检索引擎；topK 参数在配置加载时已校验为正数
func NewEngine(index Searcher, reranker Reranker, topKRetrieval, topKRerank int) *Engine {
	return &Engine{
		index:         index,
		reranker:      reranker,
		topKRetrieval: topKRetrieval,
		topKRerank:    topKRerank,
	}
}

// Retrieve 返回按相关度降序、长度不超过 topKRerank 的证据列表。
// 向量库不可用时返回错误；重排失败时降级为统一分数并保持召回顺序。
func (e *Engine) Retrieve(ctx context.Context, query string) ([]Evidence, error) {
	ctx, span := tracer.Start(ctx, "retrieval.Retrieve",
		trace.WithAttributes(
			attribute.Int("top_k_retrieval", e.topKRetrieval),
			attribute.Int("top_k_rerank", e.topKRerank),
		))
	defer span.End()

	candidates, err := e.index.Search(ctx, query, e.topKRetrieval)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.RetrievalCandidates.Observe(float64(len(candidates)))
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > e.topKRetrieval {
		candidates = candidates[:e.topKRetrieval]
	}

	scores := e.score(ctx, query, candidates)

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	n := min(e.topKRerank, len(order))
	out := make([]Evidence, 0, n)
	for rank, idx := range order[:n] {
		c := candidates[idx]
		out = append(out, Evidence{
			Text:  c.Passage.Text,
			Meta:  c.Passage.Meta,
			Score: scores[idx],
			Rank:  rank + 1,
		})
	}
	return out, nil
}

// score 调用重排器；失败或数量不符时回退为统一分数
func (e *Engine) score(ctx context.Context, query string, candidates []Candidate) []float64 {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Passage.Text
	}

	start := time.Now()
	scores, err := e.reranker.Score(ctx, query, texts)
	metrics.RerankDuration.Observe(time.Since(start).Seconds())
	if err == nil && len(scores) != len(texts) {
		err = fmt.Errorf("reranker returned %d scores for %d candidates", len(scores), len(texts))
	}
	if err == nil {
		return scores
	}

	metrics.RerankFallbackTotal.Inc()
	trace.SpanFromContext(ctx).AddEvent("rerank_fallback")
	logger.Warn(ctx, "rerank failed, using uniform scores", "stage", "rerank", "candidates", len(texts), "error", err.Error())

	fallback := make([]float64, len(texts))
	for i := range fallback {
		fallback[i] = fallbackRerankScore
	}
	return fallback
}

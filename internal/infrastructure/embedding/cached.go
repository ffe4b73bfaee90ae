package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	lru "github.com/hashicorp/golang-lru/v2"

	"monk-ai-api/pkg/metrics"
)

const cacheName = "embedding"

// CachedEmbedder 以文本为键缓存向量；只缓存成功结果
type CachedEmbedder struct {
	next  embedding.Embedder
	cache *lru.Cache[string, []float64]
}

var _ embedding.Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(next embedding.Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}
	metrics.CacheRequestsTotal.WithLabelValues(cacheName, "hit").Add(float64(len(texts) - len(missTexts)))
	metrics.CacheRequestsTotal.WithLabelValues(cacheName, "miss").Add(float64(len(missTexts)))

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedStrings(ctx, missTexts, opts...)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(missTexts))
	}
	for j, v := range vecs {
		out[missIdx[j]] = v
		c.cache.Add(missTexts[j], v)
	}
	return out, nil
}

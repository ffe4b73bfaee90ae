package retrieval

import (
	"context"

	"monk-ai-api/internal/domain/entity"
)

// VectorStore 定义应用层对向量存储的最小依赖（port），由 Milvus 或内存实现提供。
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	// Search 返回按相似度降序的候选，长度不超过 k
	Search(ctx context.Context, vector []float32, k int) ([]Candidate, error)
	Insert(ctx context.Context, passages []*entity.Passage) error
	Count(ctx context.Context) (int64, error)
	Drop(ctx context.Context) error
}

// Reranker 交叉编码器打分，返回与 candidates 同序的分数；空输入返回空结果且不发起调用
type Reranker interface {
	Score(ctx context.Context, query string, candidates []string) ([]float64, error)
}

// Searcher 检索引擎对粗召回的依赖
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Candidate, error)
}

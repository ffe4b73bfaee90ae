// Package memory 提供进程内向量存储，用于本地开发与测试
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
)

// VectorStore 余弦相似度的内存向量库
type VectorStore struct {
	mu       sync.RWMutex
	dim      int
	passages []entity.Passage
}

// NewVectorStore 创建内存向量库；dim 为 0 时不校验维度
func NewVectorStore(dim int) *VectorStore {
	return &VectorStore{dim: dim}
}

var _ retrieval.VectorStore = (*VectorStore)(nil)

func (s *VectorStore) EnsureCollection(_ context.Context) error {
	return nil
}

func (s *VectorStore) Search(ctx context.Context, vector []float32, k int) ([]retrieval.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	out := make([]retrieval.Candidate, 0, len(s.passages))
	for _, p := range s.passages {
		out = append(out, retrieval.Candidate{
			Passage:    p,
			Similarity: cosine(vector, p.Embedding),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (s *VectorStore) Insert(ctx context.Context, passages []*entity.Passage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range passages {
		if p == nil {
			continue
		}
		if s.dim > 0 && len(p.Embedding) != s.dim {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, want %d", p.ID, len(p.Embedding), s.dim)
		}
	}
	for _, p := range passages {
		if p == nil {
			continue
		}
		cp := *p
		cp.Embedding = append([]float32(nil), p.Embedding...)
		s.passages = append(s.passages, cp)
	}
	return nil
}

func (s *VectorStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.passages)), nil
}

func (s *VectorStore) Drop(_ context.Context) error {
	s.mu.Lock()
	s.passages = nil
	s.mu.Unlock()
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package retrieval

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/embedding"

	"monk-ai-api/internal/domain/entity"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

type fakeStore struct {
	mu        sync.Mutex
	hits      []Candidate
	searchErr error
	failOn    int // 第几次 Insert 失败（从 1 开始），0 表示不失败
	inserts   int
	inserted  [][]*entity.Passage
	lastK     int
}

func (f *fakeStore) EnsureCollection(context.Context) error { return nil }

func (f *fakeStore) Search(_ context.Context, _ []float32, k int) ([]Candidate, error) {
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeStore) Insert(_ context.Context, passages []*entity.Passage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.failOn == f.inserts {
		return errors.New("milvus: insert rejected")
	}
	f.inserted = append(f.inserted, passages)
	return nil
}

func (f *fakeStore) Count(context.Context) (int64, error) {
	var n int64
	for _, b := range f.inserted {
		n += int64(len(b))
	}
	return n, nil
}

func (f *fakeStore) Drop(context.Context) error {
	f.inserted = nil
	return nil
}

type fakeSearcher struct {
	candidates []Candidate
	err        error
	gotK       int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, k int) ([]Candidate, error) {
	f.gotK = k
	return f.candidates, f.err
}

type fakeReranker struct {
	scores []float64
	err    error
	calls  int
	gotN   int
}

func (f *fakeReranker) Score(_ context.Context, _ string, candidates []string) ([]float64, error) {
	f.calls++
	f.gotN = len(candidates)
	return f.scores, f.err
}

func candidate(text, book string, sim float64) Candidate {
	return Candidate{
		Passage:    entity.Passage{Text: text, Meta: entity.PassageMeta{BookName: book}},
		Similarity: sim,
	}
}

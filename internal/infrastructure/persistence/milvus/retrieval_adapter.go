package milvus

import (
	"context"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
)

// RetrievalVectorStore 将 Repository 适配为 retrieval.VectorStore
type RetrievalVectorStore struct {
	repo *Repository
}

func NewRetrievalVectorStore(repo *Repository) *RetrievalVectorStore {
	return &RetrievalVectorStore{repo: repo}
}

var _ retrieval.VectorStore = (*RetrievalVectorStore)(nil)

func (s *RetrievalVectorStore) EnsureCollection(ctx context.Context) error {
	if s == nil || s.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return s.repo.EnsureCollection(ctx)
}

func (s *RetrievalVectorStore) Search(ctx context.Context, vector []float32, k int) ([]retrieval.Candidate, error) {
	if s == nil || s.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}
	hits, err := s.repo.SearchPassages(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	out := make([]retrieval.Candidate, 0, len(hits))
	for _, h := range hits {
		if h == nil {
			continue
		}
		meta, body, ok := retrieval.DecodePassageText(h.TextContent)
		if !ok {
			meta = entity.PassageMeta{}
		}
		// 标量列优先
		if h.BookName != "" {
			meta.BookName = h.BookName
		}
		if h.Chapter != "" {
			meta.Chapter = h.Chapter
		}
		if h.Section != "" {
			meta.Section = h.Section
		}
		if h.VerseNumber != "" {
			meta.VerseNumber = h.VerseNumber
		}
		out = append(out, retrieval.Candidate{
			Passage: entity.Passage{
				ID:   h.ID,
				Text: body,
				Meta: meta,
			},
			Similarity: s.repo.similarity(h.Score),
		})
	}
	return out, nil
}

func (s *RetrievalVectorStore) Insert(ctx context.Context, passages []*entity.Passage) error {
	if s == nil || s.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	rows := make([]*PassageRow, 0, len(passages))
	for _, p := range passages {
		if p == nil {
			continue
		}
		rows = append(rows, &PassageRow{
			ID:          p.ID,
			Vector:      p.Embedding,
			BookName:    p.Meta.BookName,
			Chapter:     p.Meta.Chapter,
			Section:     p.Meta.Section,
			VerseNumber: p.Meta.VerseNumber,
			TextContent: retrieval.EncodePassageText(p.Meta, p.Text),
		})
	}
	return s.repo.InsertPassages(ctx, rows)
}

func (s *RetrievalVectorStore) Count(ctx context.Context) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, retrieval.ErrVectorDisabled
	}
	return s.repo.CountRows(ctx)
}

func (s *RetrievalVectorStore) Drop(ctx context.Context) error {
	if s == nil || s.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return s.repo.DropCollection(ctx)
}

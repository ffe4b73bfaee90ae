package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/domain/entity"
)

func TestVectorStore_SearchOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(2)

	require.NoError(t, s.Insert(ctx, []*entity.Passage{
		{ID: "a", Text: "east", Embedding: []float32{1, 0}},
		{ID: "b", Text: "north", Embedding: []float32{0, 1}},
		{ID: "c", Text: "north-east", Embedding: []float32{1, 1}},
	}))

	got, err := s.Search(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Passage.ID)
	assert.Equal(t, "c", got[1].Passage.ID)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)
}

func TestVectorStore_DimensionMismatch(t *testing.T) {
	s := NewVectorStore(3)
	err := s.Insert(context.Background(), []*entity.Passage{{ID: "x", Embedding: []float32{1}}})
	require.Error(t, err)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVectorStore_CountAndDrop(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(0)
	require.NoError(t, s.Insert(ctx, []*entity.Passage{
		{ID: "a", Embedding: []float32{1}},
		{ID: "b", Embedding: []float32{2}},
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.Drop(ctx))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.Search(ctx, []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVectorStore_InsertCopiesEmbedding(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(1)
	p := &entity.Passage{ID: "a", Embedding: []float32{1}}
	require.NoError(t, s.Insert(ctx, []*entity.Passage{p}))

	p.Embedding[0] = -1
	got, err := s.Search(ctx, []float32{1}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
}

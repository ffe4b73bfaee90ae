package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/domain/entity"
	apperrors "monk-ai-api/pkg/errors"
)

func passages(n int) []*entity.Passage {
	out := make([]*entity.Passage, n)
	for i := range out {
		out[i] = &entity.Passage{Text: fmt.Sprintf("verse %d", i)}
	}
	return out
}

func TestVectorIndexSearch_NonPositiveK(t *testing.T) {
	idx := NewVectorIndex(&fakeEmbedder{}, &fakeStore{}, 100, 32)

	_, err := idx.Search(context.Background(), "karma", 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigInvalid))
}

func TestVectorIndexSearch_StoreFailureIsIndexUnavailable(t *testing.T) {
	idx := NewVectorIndex(&fakeEmbedder{}, &fakeStore{searchErr: errors.New("rpc error")}, 100, 32)

	_, err := idx.Search(context.Background(), "karma", 15)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIndexUnavailable))
}

func TestVectorIndexSearch_EmbedderFailureIsIndexUnavailable(t *testing.T) {
	idx := NewVectorIndex(&fakeEmbedder{err: errors.New("dial tcp: connection refused")}, &fakeStore{}, 100, 32)

	_, err := idx.Search(context.Background(), "karma", 15)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIndexUnavailable))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestVectorIndexSearch_TruncatesToK(t *testing.T) {
	store := &fakeStore{hits: []Candidate{candidate("a", "", 1), candidate("b", "", 0.9), candidate("c", "", 0.8)}}
	idx := NewVectorIndex(&fakeEmbedder{}, store, 100, 32)

	got, err := idx.Search(context.Background(), "karma", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, store.lastK)
}

func TestVectorIndexSearch_Disabled(t *testing.T) {
	idx := NewVectorIndex(nil, nil, 0, 0)

	_, err := idx.Search(context.Background(), "karma", 15)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVectorDisabled)
}

func TestVectorIndexAddDocuments_Batches(t *testing.T) {
	store := &fakeStore{}
	idx := NewVectorIndex(&fakeEmbedder{}, store, 100, 32)

	var checkpoints []int
	report, err := idx.AddDocuments(context.Background(), passages(250), AddOptions{
		OnBatchDone: func(_ context.Context, next int) error {
			checkpoints = append(checkpoints, next)
			return nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, []int{0, 1, 2}, report.Succeeded)
	assert.Equal(t, -1, report.FailedBatch)
	assert.Equal(t, 3, report.NextBatch())
	assert.Equal(t, []int{1, 2, 3}, checkpoints)

	require.Len(t, store.inserted, 3)
	assert.Len(t, store.inserted[0], 100)
	assert.Len(t, store.inserted[2], 50)
	assert.NotEmpty(t, store.inserted[0][0].ID)
	assert.Len(t, store.inserted[0][0].Embedding, 2)
}

func TestVectorIndexAddDocuments_PartialFailureAndResume(t *testing.T) {
	store := &fakeStore{failOn: 2}
	idx := NewVectorIndex(&fakeEmbedder{}, store, 100, 32)
	docs := passages(300)

	report, err := idx.AddDocuments(context.Background(), docs, AddOptions{})
	require.Error(t, err)
	assert.Equal(t, []int{0}, report.Succeeded)
	assert.Equal(t, 1, report.FailedBatch)
	assert.Equal(t, 1, report.NextBatch())

	store.failOn = 0
	report, err = idx.AddDocuments(context.Background(), docs, AddOptions{ResumeFrom: report.NextBatch()})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, report.Succeeded)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 300, count)
}

func TestVectorIndexAddDocuments_NegativeResumeStartsAtFirstBatch(t *testing.T) {
	store := &fakeStore{}
	idx := NewVectorIndex(&fakeEmbedder{}, store, 2, 32)

	report, err := idx.AddDocuments(context.Background(), passages(3), AddOptions{ResumeFrom: -2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, report.Succeeded)
	assert.Len(t, store.inserted, 2)
}

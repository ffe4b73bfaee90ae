package milvus

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "monk-ai-api/pkg/errors"
)

func TestCompareMetric(t *testing.T) {
	tests := []struct {
		name    string
		params  []map[string]string
		wantErr bool
	}{
		{name: "match", params: []map[string]string{{"index_type": "HNSW", "metric_type": "COSINE"}}},
		{name: "case insensitive", params: []map[string]string{{"metric_type": "cosine"}}},
		{name: "no metric declared", params: []map[string]string{{"index_type": "HNSW"}}},
		{name: "no index", params: nil},
		{name: "mismatch", params: []map[string]string{{"metric_type": "L2"}}, wantErr: true},
		{name: "second index mismatches", params: []map[string]string{{"metric_type": "COSINE"}, {"metric_type": "IP"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compareMetric("hindu_scriptures", entity.COSINE, tt.params)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigInvalid))
		})
	}
}

func TestRepositorySimilarity(t *testing.T) {
	l2 := &Repository{metric: entity.L2}
	assert.InDelta(t, 1.0, l2.similarity(0), 1e-9)
	assert.InDelta(t, 0.5, l2.similarity(1), 1e-9)
	assert.Greater(t, l2.similarity(0.2), l2.similarity(0.8))

	cosine := &Repository{metric: entity.COSINE}
	assert.InDelta(t, 0.75, cosine.similarity(0.75), 1e-6)
}

func TestNewRepository_Defaults(t *testing.T) {
	r := NewRepository(nil, "", 384)
	assert.Equal(t, DefaultCollection, r.Collection())
	assert.Equal(t, entity.COSINE, r.metric)

	r = NewRepository(&Client{config: nil}, "gita", 384)
	assert.Equal(t, "gita", r.Collection())
}

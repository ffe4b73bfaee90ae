package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/config"
)

func TestClient_EmbedStringsBatches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mini", req.Model)

		// 倒序返回，客户端按 index 归位
		resp := embeddingsResponse{Model: req.Model}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingItem{Index: i, Embedding: []float64{float64(len(req.Input[i])), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(&config.EmbeddingConfig{Endpoint: srv.URL + "/", Model: "mini", BatchSize: 2, APIKey: "k1"})
	got, err := c.EmbedStrings(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, [][]float64{{1, 1}, {2, 1}, {3, 1}}, got)
}

func TestClient_EmbedStringsErrors(t *testing.T) {
	unavailable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer unavailable.Close()

	c := NewClient(&config.EmbeddingConfig{Endpoint: unavailable.URL})
	_, err := c.EmbedStrings(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	duplicate := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingsResponse{Data: []embeddingItem{
			{Index: 0, Embedding: []float64{1}},
			{Index: 0, Embedding: []float64{2}},
		}})
	}))
	defer duplicate.Close()

	c = NewClient(&config.EmbeddingConfig{Endpoint: duplicate.URL})
	_, err = c.EmbedStrings(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid embedding index")

	empty := NewClient(&config.EmbeddingConfig{})
	_, err = empty.EmbedStrings(context.Background(), []string{"a"})
	require.Error(t, err)

	got, err := empty.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type countingEmbedder struct {
	seen []string
}

func (e *countingEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.seen = append(e.seen, texts...)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t))}
	}
	return out, nil
}

func TestCachedEmbedder_OnlyMissesReachBackend(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 8)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.EmbedStrings(ctx, []string{"karma", "dharma"})
	require.NoError(t, err)

	got, err := c.EmbedStrings(ctx, []string{"dharma", "moksha", "karma"})
	require.NoError(t, err)

	assert.Equal(t, []string{"karma", "dharma", "moksha"}, inner.seen)
	assert.Equal(t, [][]float64{{6}, {6}, {5}}, got)
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(context.Background(), &config.EmbeddingConfig{Provider: "word2vec"}, 0)
	require.Error(t, err)
}

package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/config"
)

func TestClient_ScoreReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/rerank", r.URL.Path)

		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is dharma", req.Query)
		assert.Len(t, req.Candidates, 3)
		assert.Equal(t, defaultModel, req.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rerankResponse{Results: []rerankResult{
			{Index: 2, Score: 0.9},
			{Index: 0, Score: 0.4},
			{Index: 1, Score: -1.2},
		}})
	}))
	defer srv.Close()

	c := NewClient(&config.RerankConfig{Endpoint: srv.URL + "/"})
	scores, err := c.Score(context.Background(), "what is dharma", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, -1.2, 0.9}, scores)
}

func TestClient_ScoreEmptyInputSkipsCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(&config.RerankConfig{Endpoint: srv.URL})
	scores, err := c.Score(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.False(t, called)
}

func TestClient_ScoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		results []rerankResult
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "short result", status: http.StatusOK, results: []rerankResult{{Index: 0, Score: 1}}},
		{name: "duplicate index", status: http.StatusOK, results: []rerankResult{{Index: 0, Score: 1}, {Index: 0, Score: 2}}},
		{name: "out of range", status: http.StatusOK, results: []rerankResult{{Index: 0, Score: 1}, {Index: 5, Score: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(rerankResponse{Results: tt.results})
			}))
			defer srv.Close()

			c := NewClient(&config.RerankConfig{Endpoint: srv.URL})
			_, err := c.Score(context.Background(), "q", []string{"a", "b"})
			require.Error(t, err)
		})
	}
}

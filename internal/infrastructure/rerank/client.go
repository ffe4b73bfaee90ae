// Package rerank 提供交叉编码器重排服务的 HTTP 客户端
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/config"
)

const defaultModel = "cross-encoder/ms-marco-MiniLM-L-6-v2"

var tracer = otel.Tracer("rerank")

type rerankRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
	Model   string         `json:"model"`
}

// Client POST {endpoint}/v1/rerank
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

var _ retrieval.Reranker = (*Client)(nil)

func NewClient(cfg *config.RerankConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Score 返回与 candidates 同序的相关度分数；服务返回的结果可以乱序，但必须覆盖每个候选恰好一次
func (c *Client) Score(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}
	ctx, span := tracer.Start(ctx, "rerank.Score",
		trace.WithAttributes(
			attribute.String("model", c.model),
			attribute.Int("candidates", len(candidates)),
		))
	defer span.End()

	if c.endpoint == "" {
		return nil, fmt.Errorf("rerank endpoint is empty")
	}

	payload, err := json.Marshal(&rerankRequest{Query: query, Candidates: candidates, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("rerank endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		return nil, err
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	if len(out.Results) != len(candidates) {
		return nil, fmt.Errorf("rerank returned %d results for %d candidates", len(out.Results), len(candidates))
	}

	scores := make([]float64, len(candidates))
	seen := make([]bool, len(candidates))
	for _, r := range out.Results {
		if r.Index < 0 || r.Index >= len(candidates) || seen[r.Index] {
			return nil, fmt.Errorf("invalid result index %d for %d candidates", r.Index, len(candidates))
		}
		seen[r.Index] = true
		scores[r.Index] = r.Score
	}
	return scores, nil
}

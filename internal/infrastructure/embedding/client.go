// Package embedding 提供向量化客户端：自托管 HTTP 服务、OpenAI 兼容接口，以及查询向量的本地缓存
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"monk-ai-api/internal/config"
)

const (
	defaultBatchSize = 32
	defaultModel     = "sentence-transformers/all-MiniLM-L6-v2"
	embeddingsPath   = "/v1/embeddings"
)

var tracer = otel.Tracer("embedding")

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingItem struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingsResponse struct {
	Data  []embeddingItem `json:"data"`
	Model string          `json:"model"`
}

// Client POST {endpoint}/v1/embeddings，面向自托管的 sentence-transformers 服务
type Client struct {
	url        string
	apiKey     string
	model      string
	batchSize  int
	httpClient *http.Client
}

var _ embedding.Embedder = (*Client)(nil)

func NewClient(cfg *config.EmbeddingConfig) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		batchSize:  cfg.BatchSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if base := strings.TrimRight(cfg.Endpoint, "/"); base != "" {
		c.url = base + embeddingsPath
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = 30 * time.Second
	}
	return c
}

// EmbedStrings 结果与输入同序；任一批次失败则整体失败
func (c *Client) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	if len(texts) == 0 {
		return out, nil
	}
	if c.url == "" {
		return nil, fmt.Errorf("embedding endpoint is empty")
	}

	for start := 0; start < len(texts); start += c.batchSize {
		batch := texts[start:min(start+c.batchSize, len(texts))]
		vecs, err := c.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float64, error) {
	ctx, span := tracer.Start(ctx, "embedding.Batch",
		trace.WithAttributes(
			attribute.String("model", c.model),
			attribute.Int("size", len(batch)),
		))
	defer span.End()

	payload, err := json.Marshal(&embeddingsRequest{Model: c.model, Input: batch})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to call embedding endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		return nil, err
	}

	var parsed embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(parsed.Data), len(batch))
	}

	// 服务端可能乱序返回，按 index 归位
	vecs := make([][]float64, len(batch))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(batch) || vecs[item.Index] != nil {
			return nil, fmt.Errorf("invalid embedding index %d for batch of %d", item.Index, len(batch))
		}
		vecs[item.Index] = item.Embedding
	}
	return vecs, nil
}

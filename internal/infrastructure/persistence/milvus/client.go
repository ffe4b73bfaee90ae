// Package milvus 提供经文向量集合的 Milvus 访问层
package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"monk-ai-api/internal/config"
)

var tracer = otel.Tracer("milvus")

// connectTimeout 启动时的连接上限，超时后由调用方降级为检索不可用
const connectTimeout = 10 * time.Second

// Client Milvus 连接与集合级操作
type Client struct {
	milvus client.Client
	config *config.MilvusConfig
}

// NewClient 连接 Milvus；账号密码都配置时才启用认证
func NewClient(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	mc := client.Config{Address: cfg.Addr()}
	if cfg.User != "" && cfg.Password != "" {
		mc.Username = cfg.User
		mc.Password = cfg.Password
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	mv, err := client.NewClient(dialCtx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Addr(), err)
	}
	return &Client{milvus: mv, config: cfg}, nil
}

func (c *Client) Close() error {
	if c == nil || c.milvus == nil {
		return nil
	}
	return c.milvus.Close()
}

// HealthCheck 就绪探针：能列出集合即视为可用
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.HealthCheck")
	defer span.End()

	if _, err := c.milvus.ListCollections(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	ctx, span := tracer.Start(ctx, "milvus.HasCollection",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	return c.milvus.HasCollection(ctx, name)
}

// LoadCollection 同步加载集合，返回后即可检索
func (c *Client) LoadCollection(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "milvus.LoadCollection",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	if err := c.milvus.LoadCollection(ctx, name, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	return nil
}

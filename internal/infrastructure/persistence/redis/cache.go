package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"monk-ai-api/pkg/metrics"
)

const defaultLoadTimeout = 10 * time.Second

var cacheTracer = otel.Tracer("redis.cache")

// Cache 字符串缓存，按名称区分指标
type Cache struct {
	client      *Client
	name        string
	prefix      string
	loadTimeout time.Duration
	group       singleflight.Group
}

// NewCache 创建缓存服务；name 同时作为键前缀
func NewCache(client *Client, name string) *Cache {
	return &Cache{
		client:      client,
		name:        name,
		prefix:      "cache:" + name + ":",
		loadTimeout: defaultLoadTimeout,
	}
}

// Key 将任意内容摘要为固定长度的缓存键
func (c *Cache) Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	if c == nil {
		return hex.EncodeToString(sum[:16])
	}
	return c.prefix + hex.EncodeToString(sum[:16])
}

// GetOrLoad Read-Through：未命中时通过 singleflight 合并并发加载，写缓存失败不影响返回结果。
// Redis 读失败时直接回源。回源不随任何一个调用方取消，只受 loadTimeout 约束；
// 调用方自己的 ctx 结束时提前返回。
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (string, error)) (string, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(
			attribute.String("cache.name", c.name),
			attribute.String("cache.key", key),
		))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "hit").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return val, nil
	case IsNil(err):
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "miss").Inc()
	default:
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "error").Inc()
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		data, err := loader(lctx)
		if err != nil {
			return "", err
		}
		if err := c.client.rdb.Set(lctx, key, data, ttl).Err(); err != nil {
			span.RecordError(err)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return "", ctx.Err()
	case res := <-ch:
		span.SetAttributes(attribute.Bool("cache.shared", res.Shared))
		if res.Err != nil {
			span.RecordError(res.Err)
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// slidingWindow 清理过期记录、计数与写入在脚本内原子执行
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
if redis.call('ZCARD', key) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, ARGV[5])
return 1
`)

// RateLimiter 基于有序集合的滑动窗口限流器
type RateLimiter struct {
	client *Client
	now    func() time.Time
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow 窗口内请求数未达 limit 时记录本次请求并放行
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow", trace.WithAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
	))
	defer span.End()

	now := l.now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString()[:8])
	args := []any{now, now - window.Milliseconds(), limit, member, (2 * window).Milliseconds()}
	allowed, err := slidingWindow.Run(ctx, l.client.rdb, []string{key}, args...).Int()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rate limit script failed: %w", err)
	}

	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed == 1))
	return allowed == 1, nil
}

// BuildUserRateLimitKey 按用户与路由构建限流键
func BuildUserRateLimitKey(userID, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", userID, endpoint)
}

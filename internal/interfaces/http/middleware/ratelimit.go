package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"monk-ai-api/internal/infrastructure/persistence/redis"
	apperrors "monk-ai-api/pkg/errors"
	"monk-ai-api/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按用户与路由做每分钟滑动窗口限流；限流器故障时放行
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	limit := strconv.Itoa(cfg.RequestsPerMinute)

	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			userID = AnonymousUser
		}
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		key := redis.BuildUserRateLimitKey(userID, endpoint)
		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.RequestsPerMinute, time.Minute)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		if !allowed {
			c.Header("Retry-After", "60")
			abortWithError(c, apperrors.CodeTooManyRequests, "rate limit exceeded")
			return
		}

		c.Next()
	}
}

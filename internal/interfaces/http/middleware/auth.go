// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "monk-ai-api/pkg/errors"
	"monk-ai-api/pkg/logger"
	"monk-ai-api/pkg/utils"
)

const (
	// UserIDHeader 关闭认证时的用户标识头
	UserIDHeader = "X-User-ID"
	// AnonymousUser 关闭认证且未携带用户头时的用户
	AnonymousUser = "anonymous"

	userIDContextKey = "user_id"
)

// AuthConfig 认证配置
type AuthConfig struct {
	Secret string
	Issuer string
	// SkipPaths 按前缀匹配跳过认证
	SkipPaths []string
	Enabled   bool
}

// Auth 认证中间件；通过后将 user_id 写入 gin 与日志上下文
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if hasAnyPrefix(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		if !cfg.Enabled {
			userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
			if userID == "" {
				userID = AnonymousUser
			}
			setUserID(c, userID)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.CodeTokenMissing, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.CodeTokenInvalid, "invalid authorization format")
			return
		}

		claims, err := jwtManager.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrExpiredToken) {
				abortWithError(c, apperrors.CodeTokenExpired, "token expired")
				return
			}
			abortWithError(c, apperrors.CodeTokenInvalid, "invalid token")
			return
		}
		if claims.Type != utils.TokenTypeAccess {
			abortWithError(c, apperrors.CodeTokenInvalid, "invalid token type")
			return
		}

		setUserID(c, claims.UserID)
		c.Next()
	}
}

// UserID 返回当前请求的用户
func UserID(c *gin.Context) string {
	return c.GetString(userIDContextKey)
}

func setUserID(c *gin.Context, userID string) {
	c.Set(userIDContextKey, userID)
	ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, userID)
	c.Request = c.Request.WithContext(ctx)
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}

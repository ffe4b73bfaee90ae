package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"monk-ai-api/internal/interfaces/http/dto"
	apperrors "monk-ai-api/pkg/errors"
)

// abortWithError 以统一错误体终止请求，状态码由错误码决定
func abortWithError(c *gin.Context, code apperrors.ErrorCode, msg string) {
	dto.AppError(c, apperrors.New(code, msg))
	c.Abort()
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

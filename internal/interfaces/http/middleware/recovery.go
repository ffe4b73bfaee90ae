package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "monk-ai-api/pkg/errors"
	"monk-ai-api/pkg/logger"
)

// Recovery 捕获 panic，记录堆栈后返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", rec),
					"stack", string(debug.Stack()),
					"route", c.FullPath(),
					"method", c.Request.Method,
				)
				abortWithError(c, apperrors.CodeInternalError, "internal server error")
			}
		}()

		c.Next()
	}
}

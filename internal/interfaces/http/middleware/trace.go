package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"monk-ai-api/pkg/logger"
	"monk-ai-api/pkg/tracer"
)

// Trace otelgin 追踪；skipPaths 下的探活与抓取请求不产生 span
func Trace(serviceName string, skipPaths []string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !hasAnyPrefix(r.URL.Path, skipPaths)
		}),
	)
}

// TraceContext 将 trace_id/span_id 写入 gin、日志上下文与响应头
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, spanID, ok := tracer.IDs(c.Request.Context())
		if ok {
			c.Set("trace_id", traceID)
			ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
			c.Request = c.Request.WithContext(ctx)
			c.Header("X-Trace-ID", traceID)
		}

		c.Next()
	}
}

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"monk-ai-api/pkg/metrics"
)

// unmatchedRoute 未命中路由的请求统一归到一个标签，避免路径基数膨胀
const unmatchedRoute = "unmatched"

// Metrics HTTP 指标；skipPaths 下的请求不计数
func Metrics(skipPaths []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasAnyPrefix(c.Request.URL.Path, skipPaths) {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method
		if c.Request.ContentLength > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route(c)).Observe(float64(c.Request.ContentLength))
		}

		c.Next()

		path := route(c)
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedRoute
}

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"monk-ai-api/internal/config"
	"monk-ai-api/internal/interfaces/http/handler"
	"monk-ai-api/internal/interfaces/http/middleware"
)

type countingLimiter struct{ calls int }

func (l *countingLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	l.calls++
	return true, nil
}

type zeroCounter struct{}

func (zeroCounter) Count(context.Context) (int64, error) { return 0, nil }

func newTestRouter(limiter middleware.RateLimiter) *Router {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RequestsPerMinute = 10
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"

	handlers := RouterHandlers{
		Health:    handler.NewHealthHandler(nil, nil, nil),
		Knowledge: handler.NewKnowledgeHandler(zeroCounter{}, handler.KnowledgeInfo{Collection: "hindu_scriptures"}),
		Chat:      handler.NewChatHandler(nil, 0),
		Session:   handler.NewSessionHandler(nil),
	}
	auth := middleware.AuthConfig{Secret: "s", Enabled: true, SkipPaths: middleware.DefaultSkipPaths}
	return NewWithDeps(cfg, handlers, auth, limiter)
}

func TestRouter_SystemEndpointsSkipAuth(t *testing.T) {
	r := newTestRouter(&countingLimiter{})

	for _, path := range []string{"/health", "/live", "/metrics"} {
		w := httptest.NewRecorder()
		r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_V1RequiresAuth(t *testing.T) {
	limiter := &countingLimiter{}
	r := newTestRouter(limiter)

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/knowledge/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, limiter.calls)

	w = httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/chat/query", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	r := newTestRouter(nil)

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

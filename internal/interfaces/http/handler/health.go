// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"monk-ai-api/internal/infrastructure/persistence/milvus"
	"monk-ai-api/internal/infrastructure/persistence/postgres"
	"monk-ai-api/internal/infrastructure/persistence/redis"
)

const readinessTimeout = 2 * time.Second

// HealthChecker 依赖的连通性检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type dependency struct {
	name     string
	checker  HealthChecker
	required bool
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler 创建健康检查处理器；postgres 与 redis 为必需，milvus 不可用时只标记 degraded
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client, milvusClient *milvus.Client) *HealthHandler {
	h := &HealthHandler{}
	h.add("postgres", pg != nil, pg, true)
	h.add("redis", redisClient != nil, redisClient, true)
	h.add("milvus", milvusClient != nil, milvusClient, false)
	return h
}

// add 避免把 nil 指针装进接口
func (h *HealthHandler) add(name string, ok bool, checker HealthChecker, required bool) {
	if !ok {
		checker = nil
	}
	h.deps = append(h.deps, dependency{name: name, checker: checker, required: required})
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]*readinessCheck, len(h.deps))
	ready := true

	for _, dep := range h.deps {
		check := &readinessCheck{}
		checks[dep.name] = check

		if dep.checker == nil {
			if dep.required {
				check.Status = "missing"
				check.Error = dep.name + " client not configured"
				ready = false
			} else {
				check.Status = "disabled"
			}
			continue
		}

		start := time.Now()
		err := dep.checker.HealthCheck(ctx)
		check.LatencyMs = time.Since(start).Milliseconds()
		switch {
		case err == nil:
			check.Status = "ok"
		case dep.required:
			check.Status = "error"
			check.Error = err.Error()
			ready = false
		default:
			check.Status = "degraded"
			check.Error = err.Error()
		}
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

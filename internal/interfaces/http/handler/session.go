package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/domain/entity"
	"monk-ai-api/internal/interfaces/http/dto"
	"monk-ai-api/internal/interfaces/http/middleware"
)

// SessionManager 会话管理
type SessionManager interface {
	List(ctx context.Context, userID string) ([]*entity.ChatSession, error)
	Get(ctx context.Context, userID, sessionID string) (*chat.SessionDetail, error)
	Rename(ctx context.Context, userID, sessionID, title string) error
	Delete(ctx context.Context, userID, sessionID string) error
	SearchHistory(ctx context.Context, userID, query string) ([]*entity.MessageSearchHit, error)
}

// SessionHandler 会话处理器
type SessionHandler struct {
	sessions SessionManager
}

func NewSessionHandler(sessions SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// ListSessions 获取活跃会话
// @Summary 会话列表
// @Tags Sessions
// @Produce json
// @Success 200 {object} dto.Response[dto.SessionListResponse]
// @Router /v1/chat/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToSessionListResponse(sessions))
}

// GetSession 获取会话及消息
// @Summary 会话详情
// @Tags Sessions
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionDetailResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chat/sessions/{sid} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	detail, err := h.sessions.Get(c.Request.Context(), middleware.UserID(c), c.Param("sid"))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToSessionDetailResponse(detail))
}

// RenameSession 重命名会话
// @Summary 重命名会话
// @Tags Sessions
// @Accept json
// @Param sid path string true "会话 ID"
// @Param body body dto.RenameSessionRequest true "标题"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chat/sessions/{sid} [patch]
func (h *SessionHandler) RenameSession(c *gin.Context) {
	var req dto.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.sessions.Rename(c.Request.Context(), middleware.UserID(c), c.Param("sid"), req.Title); err != nil {
		dto.AppError(c, err)
		return
	}
	dto.NoContent(c)
}

// DeleteSession 软删除会话
// @Summary 删除会话
// @Tags Sessions
// @Param sid path string true "会话 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chat/sessions/{sid} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), middleware.UserID(c), c.Param("sid")); err != nil {
		dto.AppError(c, err)
		return
	}
	dto.NoContent(c)
}

// SearchHistory 检索历史消息
// @Summary 历史检索
// @Tags Sessions
// @Produce json
// @Param q query string true "关键词"
// @Success 200 {object} dto.Response[dto.HistorySearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/chat/history/search [get]
func (h *SessionHandler) SearchHistory(c *gin.Context) {
	hits, err := h.sessions.SearchHistory(c.Request.Context(), middleware.UserID(c), c.Query("q"))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToHistorySearchResponse(hits))
}

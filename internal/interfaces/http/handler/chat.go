package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/interfaces/http/dto"
	"monk-ai-api/internal/interfaces/http/middleware"
	apperrors "monk-ai-api/pkg/errors"
	"monk-ai-api/pkg/logger"
)

const defaultMaxUploadBytes = 25 << 20

// ChatService 问答编排
type ChatService interface {
	ProcessQuery(ctx context.Context, userID string, req chat.QueryRequest) (*chat.QueryResponse, error)
	ProcessVoiceQuery(ctx context.Context, userID string, req chat.VoiceRequest) (*chat.QueryResponse, error)
}

// ChatHandler 问答处理器
type ChatHandler struct {
	svc            ChatService
	maxUploadBytes int64
}

// NewChatHandler 创建问答处理器
func NewChatHandler(svc ChatService, maxUploadBytes int64) *ChatHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ChatHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Query 文本问答
// @Summary 文本问答
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.QueryRequest true "问题"
// @Success 200 {object} dto.Response[dto.QueryResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/chat/query [post]
func (h *ChatHandler) Query(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.ProcessQuery(c.Request.Context(), middleware.UserID(c), chat.QueryRequest{
		Query:     req.Query,
		Mode:      modeOrDefault(req.Mode),
		SessionID: strings.TrimSpace(req.SessionID),
	})
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToQueryResponse(resp))
}

// VoiceQuery 语音问答
// @Summary 语音问答
// @Tags Chat
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "音频文件"
// @Param mode formData string false "beginner 或 expert"
// @Param session_id formData string false "会话 ID"
// @Success 200 {object} dto.Response[dto.QueryResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/chat/voice-query [post]
func (h *ChatHandler) VoiceQuery(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var form dto.VoiceQueryForm
	if err := c.ShouldBind(&form); err != nil {
		if isTooLarge(err) {
			dto.AppError(c, errAudioTooLarge)
			return
		}
		dto.BadRequest(c, "invalid form: "+err.Error())
		return
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		if isTooLarge(err) {
			dto.AppError(c, errAudioTooLarge)
			return
		}
		dto.AppError(c, apperrors.New(apperrors.CodeAudioMissing, "audio file is required"))
		return
	}
	if fh.Size == 0 {
		dto.AppError(c, apperrors.New(apperrors.CodeAudioMissing, "audio file is empty"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		logger.Error(ctx, "failed to open uploaded audio", err)
		dto.InternalError(c, "failed to read audio file")
		return
	}
	defer f.Close()

	resp, err := h.svc.ProcessVoiceQuery(ctx, middleware.UserID(c), chat.VoiceRequest{
		Audio:     f,
		Filename:  fh.Filename,
		Mode:      modeOrDefault(form.Mode),
		SessionID: strings.TrimSpace(form.SessionID),
	})
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToQueryResponse(resp))
}

func modeOrDefault(mode string) string {
	if strings.TrimSpace(mode) == "" {
		return chat.ModeBeginner.String()
	}
	return mode
}

var errAudioTooLarge = apperrors.New(apperrors.CodePayloadTooLarge, "audio file too large")

// isTooLarge multipart 解析可能丢失错误链，按消息兜底
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"monk-ai-api/internal/interfaces/http/dto"
)

// DocumentCounter 知识库行数
type DocumentCounter interface {
	Count(ctx context.Context) (int64, error)
}

// KnowledgeInfo 统计接口中展示的静态信息
type KnowledgeInfo struct {
	Collection     string
	EmbeddingModel string
	RerankerModel  string
}

// KnowledgeHandler 知识库处理器
type KnowledgeHandler struct {
	counter DocumentCounter
	info    KnowledgeInfo
}

func NewKnowledgeHandler(counter DocumentCounter, info KnowledgeInfo) *KnowledgeHandler {
	return &KnowledgeHandler{counter: counter, info: info}
}

// Stats 知识库统计
// @Summary 知识库统计
// @Tags Knowledge
// @Produce json
// @Success 200 {object} dto.Response[dto.KnowledgeStatsResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/knowledge/stats [get]
func (h *KnowledgeHandler) Stats(c *gin.Context) {
	n, err := h.counter.Count(c.Request.Context())
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, &dto.KnowledgeStatsResponse{
		CollectionName: h.info.Collection,
		TotalDocuments: n,
		EmbeddingModel: h.info.EmbeddingModel,
		RerankerModel:  h.info.RerankerModel,
	})
}

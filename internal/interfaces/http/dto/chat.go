package dto

import (
	"time"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/domain/entity"
)

// QueryRequest 文本问答请求；mode 为空时按 beginner 处理
type QueryRequest struct {
	Query     string `json:"query" binding:"required"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id"`
}

// VoiceQueryForm 语音问答表单，音频文件字段名为 audio
type VoiceQueryForm struct {
	Mode      string `form:"mode"`
	SessionID string `form:"session_id"`
}

// QueryResponse 问答响应
type QueryResponse struct {
	Answer              string            `json:"answer"`
	HindiTranslation    string            `json:"hindi_translation"`
	Citations           []entity.Citation `json:"citations"`
	Recommendations     []string          `json:"recommendations"`
	KeywordExplanations map[string]string `json:"keyword_explanations,omitempty"`
	SessionID           string            `json:"session_id,omitempty"`
	Transcription       string            `json:"transcription,omitempty"`
}

// ToQueryResponse 转换问答结果
func ToQueryResponse(r *chat.QueryResponse) *QueryResponse {
	citations := r.Citations
	if citations == nil {
		citations = []entity.Citation{}
	}
	recs := r.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return &QueryResponse{
		Answer:              r.Answer,
		HindiTranslation:    r.HindiTranslation,
		Citations:           citations,
		Recommendations:     recs,
		KeywordExplanations: r.KeywordExplanations,
		SessionID:           r.SessionID,
		Transcription:       r.Transcription,
	}
}

// RenameSessionRequest 重命名会话
type RenameSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

// SessionResponse 会话摘要
type SessionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageResponse 会话消息
type MessageResponse struct {
	ID               string            `json:"id"`
	Role             entity.Role       `json:"role"`
	Content          string            `json:"content"`
	Mode             string            `json:"mode,omitempty"`
	Citations        []entity.Citation `json:"citations,omitempty"`
	HindiTranslation string            `json:"hindi_translation,omitempty"`
	Recommendations  []string          `json:"recommendations,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

// SessionDetailResponse 会话详情
type SessionDetailResponse struct {
	SessionResponse
	Messages []*MessageResponse `json:"messages"`
}

// SessionListResponse 会话列表
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

// HistorySearchResponse 历史检索结果
type HistorySearchResponse struct {
	Results []*entity.MessageSearchHit `json:"results"`
}

func ToSessionResponse(s *entity.ChatSession) *SessionResponse {
	return &SessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func ToSessionListResponse(sessions []*entity.ChatSession) *SessionListResponse {
	out := make([]*SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToSessionResponse(s))
	}
	return &SessionListResponse{Sessions: out}
}

func ToSessionDetailResponse(d *chat.SessionDetail) *SessionDetailResponse {
	msgs := make([]*MessageResponse, 0, len(d.Messages))
	for _, m := range d.Messages {
		msgs = append(msgs, &MessageResponse{
			ID:               m.ID,
			Role:             m.Role,
			Content:          m.Content,
			Mode:             m.Mode,
			Citations:        m.Citations,
			HindiTranslation: m.HindiTranslation,
			Recommendations:  m.Recommendations,
			Timestamp:        m.Timestamp,
		})
	}
	return &SessionDetailResponse{
		SessionResponse: *ToSessionResponse(d.Session),
		Messages:        msgs,
	}
}

func ToHistorySearchResponse(hits []*entity.MessageSearchHit) *HistorySearchResponse {
	if hits == nil {
		hits = []*entity.MessageSearchHit{}
	}
	return &HistorySearchResponse{Results: hits}
}

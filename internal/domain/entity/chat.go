// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DefaultSessionTitle 无法从首条消息提取标题时使用
const DefaultSessionTitle = "New Chat"

// ChatSession 用户的一次对话会话
type ChatSession struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);index:idx_chat_sessions_user_active;not null"`
	Title     string    `json:"title" gorm:"type:varchar(128);not null"`
	IsActive  bool      `json:"is_active" gorm:"index:idx_chat_sessions_user_active;not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// NewChatSession 创建会话
func NewChatSession(userID, title string) *ChatSession {
	now := time.Now().UTC()
	if title == "" {
		title = DefaultSessionTitle
	}
	return &ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Citation 回答引用的经文出处
type Citation struct {
	Book           string `json:"book"`
	Chapter        string `json:"chapter"`
	Section        string `json:"section"`
	Verse          string `json:"verse"`
	ContentPreview string `json:"content_preview"`
}

// ChatMessage 会话中的单条消息，只追加不修改
type ChatMessage struct {
	ID               string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID        string         `json:"session_id" gorm:"type:uuid;index;not null"`
	UserID           string         `json:"user_id" gorm:"type:varchar(64);index;not null"`
	Role             Role           `json:"role" gorm:"type:varchar(16);not null"`
	Content          string         `json:"content" gorm:"type:text;not null"`
	Mode             string         `json:"mode,omitempty" gorm:"type:varchar(16)"`
	Citations        []Citation     `json:"citations,omitempty" gorm:"type:jsonb;serializer:json"`
	HindiTranslation string         `json:"hindi_translation,omitempty" gorm:"type:text"`
	Recommendations  pq.StringArray `json:"recommendations,omitempty" gorm:"type:text[]"`
	Timestamp        time.Time      `json:"timestamp" gorm:"index;not null"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// NewUserMessage 创建用户消息
func NewUserMessage(content, mode string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Mode:      mode,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssistantMessage 创建助手回答消息
func NewAssistantMessage(content, mode, hindi string, citations []Citation, recommendations []string) *ChatMessage {
	return &ChatMessage{
		ID:               uuid.NewString(),
		Role:             RoleAssistant,
		Content:          content,
		Mode:             mode,
		Citations:        citations,
		HindiTranslation: hindi,
		Recommendations:  pq.StringArray(recommendations),
		Timestamp:        time.Now().UTC(),
	}
}

// MessageSearchHit 历史消息检索命中
type MessageSearchHit struct {
	SessionID      string    `json:"session_id"`
	SessionTitle   string    `json:"session_title"`
	MessageContent string    `json:"message_content"`
	MessageRole    Role      `json:"message_role"`
	Timestamp      time.Time `json:"timestamp"`
}

package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"monk-ai-api/internal/domain/entity"
	"monk-ai-api/internal/domain/repository"
	apperrors "monk-ai-api/pkg/errors"
)

const (
	sessionListLimit   = 50
	historySearchLimit = 10
)

// SessionStore 编排器对会话持久化的依赖
type SessionStore interface {
	CreateSession(ctx context.Context, userID, title string) (string, error)
	AppendMessage(ctx context.Context, sessionID, userID string, msg *entity.ChatMessage) error
}

// SessionDetail 会话及其消息
type SessionDetail struct {
	Session  *entity.ChatSession
	Messages []*entity.ChatMessage
}

// SessionService 会话管理：创建、追加、列表、重命名、软删除与历史检索
type SessionService struct {
	tx       repository.Transactor
	sessions repository.ChatSessionRepository
	messages repository.ChatMessageRepository
}

func NewSessionService(tx repository.Transactor, sessions repository.ChatSessionRepository, messages repository.ChatMessageRepository) *SessionService {
	return &SessionService{tx: tx, sessions: sessions, messages: messages}
}

func (s *SessionService) CreateSession(ctx context.Context, userID, title string) (string, error) {
	session := entity.NewChatSession(userID, title)
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create session")
	}
	return session.ID, nil
}

// AppendMessage 在事务中锁定会话行后写入消息并刷新 updated_at，保证同一会话的追加串行
func (s *SessionService) AppendMessage(ctx context.Context, sessionID, userID string, msg *entity.ChatMessage) error {
	if !ValidSessionID(sessionID) {
		return malformedSession()
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessions.GetActiveForUpdate(ctx, userID, sessionID)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to lock session")
		}
		if session == nil {
			return sessionNotFound(sessionID)
		}

		msg.SessionID = session.ID
		msg.UserID = userID
		if err := s.messages.Create(ctx, msg); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to append message")
		}
		if err := s.sessions.Touch(ctx, session.ID); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to touch session")
		}
		return nil
	})
}

// List 返回用户的活跃会话，按最近更新倒序
func (s *SessionService) List(ctx context.Context, userID string) ([]*entity.ChatSession, error) {
	out, err := s.sessions.ListActive(ctx, userID, sessionListLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list sessions")
	}
	return out, nil
}

func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*SessionDetail, error) {
	if !ValidSessionID(sessionID) {
		return nil, malformedSession()
	}
	session, err := s.sessions.GetActive(ctx, userID, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get session")
	}
	if session == nil {
		return nil, sessionNotFound(sessionID)
	}
	msgs, err := s.messages.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list messages")
	}
	return &SessionDetail{Session: session, Messages: msgs}, nil
}

func (s *SessionService) Rename(ctx context.Context, userID, sessionID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.New(apperrors.CodeValidationFailed, "title is required")
	}
	if !ValidSessionID(sessionID) {
		return malformedSession()
	}
	ok, err := s.sessions.UpdateTitle(ctx, userID, sessionID, title)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to rename session")
	}
	if !ok {
		return sessionNotFound(sessionID)
	}
	return nil
}

// Delete 软删除，仅把 is_active 置为 false
func (s *SessionService) Delete(ctx context.Context, userID, sessionID string) error {
	if !ValidSessionID(sessionID) {
		return malformedSession()
	}
	ok, err := s.sessions.Deactivate(ctx, userID, sessionID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete session")
	}
	if !ok {
		return sessionNotFound(sessionID)
	}
	return nil
}

// SearchHistory 按内容做大小写不敏感的子串检索，最新优先
func (s *SessionService) SearchHistory(ctx context.Context, userID, query string) ([]*entity.MessageSearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "search query is required")
	}
	hits, err := s.messages.Search(ctx, userID, query, historySearchLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to search history")
	}
	return hits, nil
}

func sessionNotFound(sessionID string) error {
	return apperrors.New(apperrors.CodeSessionNotFound, "session not found").WithDetail(sessionID)
}

// malformedSession 非 UUID 的 id 不可能对应任何会话；不回显原值
func malformedSession() error {
	return apperrors.New(apperrors.CodeSessionNotFound, "session not found")
}

// ValidSessionID 会话 id 必须是规范 UUID，否则不进入数据库查询
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"monk-ai-api/internal/domain/entity"
	"monk-ai-api/internal/domain/repository"
)

type ChatSessionRepository struct {
	client *Client
}

func NewChatSessionRepository(client *Client) *ChatSessionRepository {
	return &ChatSessionRepository{client: client}
}

var _ repository.ChatSessionRepository = (*ChatSessionRepository)(nil)

func (r *ChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) GetActive(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.GetActive")
	defer span.End()

	return r.getActive(getDB(ctx, r.client.db), userID, sessionID)
}

func (r *ChatSessionRepository) GetActiveForUpdate(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.GetActiveForUpdate")
	defer span.End()

	db := getDB(ctx, r.client.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.getActive(db, userID, sessionID)
}

func (r *ChatSessionRepository) getActive(db *gorm.DB, userID, sessionID string) (*entity.ChatSession, error) {
	var session entity.ChatSession
	err := db.Where("id = ? AND user_id = ? AND is_active = ?", sessionID, userID, true).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return &session, nil
}

func (r *ChatSessionRepository) ListActive(ctx context.Context, userID string, limit int) ([]*entity.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.ListActive")
	defer span.End()

	db := getDB(ctx, r.client.db).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var sessions []*entity.ChatSession
	if err := db.Find(&sessions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

func (r *ChatSessionRepository) Touch(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.Touch")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.ChatSession{}).
		Where("id = ?", sessionID).
		Update("updated_at", time.Now().UTC()).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to touch chat session: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) UpdateTitle(ctx context.Context, userID, sessionID, title string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.UpdateTitle")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.ChatSession{}).
		Where("id = ? AND user_id = ? AND is_active = ?", sessionID, userID, true).
		Updates(map[string]any{"title": title, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, fmt.Errorf("failed to update chat session title: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatSessionRepository) Deactivate(ctx context.Context, userID, sessionID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.Deactivate")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.ChatSession{}).
		Where("id = ? AND user_id = ? AND is_active = ?", sessionID, userID, true).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, fmt.Errorf("failed to deactivate chat session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

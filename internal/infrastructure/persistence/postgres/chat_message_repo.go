package postgres

import (
	"context"
	"fmt"
	"strings"

	"monk-ai-api/internal/domain/entity"
	"monk-ai-api/internal/domain/repository"
)

type ChatMessageRepository struct {
	client *Client
}

func NewChatMessageRepository(client *Client) *ChatMessageRepository {
	return &ChatMessageRepository{client: client}
}

var _ repository.ChatMessageRepository = (*ChatMessageRepository)(nil)

func (r *ChatMessageRepository) Create(ctx context.Context, msg *entity.ChatMessage) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatMessageRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(msg).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

func (r *ChatMessageRepository) ListBySession(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatMessageRepository.ListBySession")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var msgs []*entity.ChatMessage
	if err := db.Where("session_id = ?", sessionID).Order("timestamp ASC").Order("id ASC").Find(&msgs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return msgs, nil
}

func (r *ChatMessageRepository) Search(ctx context.Context, userID, query string, limit int) ([]*entity.MessageSearchHit, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatMessageRepository.Search")
	defer span.End()

	db := getDB(ctx, r.client.db).
		Table("chat_messages AS m").
		Select("m.session_id AS session_id, s.title AS session_title, m.content AS message_content, m.role AS message_role, m.timestamp AS timestamp").
		Joins("JOIN chat_sessions AS s ON s.id = m.session_id").
		Where("s.user_id = ? AND s.is_active = ?", userID, true).
		Where("m.content ILIKE ?", "%"+escapeLike(query)+"%").
		Order("m.timestamp DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var hits []*entity.MessageSearchHit
	if err := db.Scan(&hits).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search chat messages: %w", err)
	}
	return hits, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，按字面子串匹配
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"monk-ai-api/internal/domain/entity"
)

// ChatSessionRepository 会话仓储
type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	// GetActive 获取属于用户且未删除的会话，不存在返回 nil, nil
	GetActive(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error)
	// GetActiveForUpdate 同 GetActive，并对行加锁，须在事务中调用
	GetActiveForUpdate(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error)
	ListActive(ctx context.Context, userID string, limit int) ([]*entity.ChatSession, error)
	Touch(ctx context.Context, sessionID string) error
	UpdateTitle(ctx context.Context, userID, sessionID, title string) (bool, error)
	Deactivate(ctx context.Context, userID, sessionID string) (bool, error)
}

// ChatMessageRepository 消息仓储
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *entity.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
	// Search 在用户的活跃会话中按内容做大小写不敏感子串匹配，按时间倒序
	Search(ctx context.Context, userID, query string, limit int) ([]*entity.MessageSearchHit, error)
}

// Checkpoint 入库进度：下一个待写入的批次序号，以及写入时数据集的指纹
type Checkpoint struct {
	NextBatch   int
	Fingerprint string
}

// CheckpointStore 入库进度检查点
type CheckpointStore interface {
	// Load 无记录返回 nil, nil
	Load(ctx context.Context, key string) (*Checkpoint, error)
	Save(ctx context.Context, key string, cp Checkpoint) error
	Clear(ctx context.Context, key string) error
}

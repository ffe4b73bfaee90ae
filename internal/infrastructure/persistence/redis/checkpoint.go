package redis

import (
	"context"
	"fmt"
	"strconv"

	"monk-ai-api/internal/domain/repository"
)

const (
	checkpointPrefix = "kb:checkpoint:"

	fieldNextBatch   = "next_batch"
	fieldFingerprint = "fingerprint"
)

// CheckpointStore 入库进度检查点，每个键一个 hash，无过期时间
type CheckpointStore struct {
	client *Client
}

func NewCheckpointStore(client *Client) *CheckpointStore {
	return &CheckpointStore{client: client}
}

var _ repository.CheckpointStore = (*CheckpointStore)(nil)

func (s *CheckpointStore) Load(ctx context.Context, key string) (*repository.Checkpoint, error) {
	vals, err := s.client.rdb.HGetAll(ctx, checkpointPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	n, err := strconv.Atoi(vals[fieldNextBatch])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid checkpoint batch %q", vals[fieldNextBatch])
	}
	return &repository.Checkpoint{NextBatch: n, Fingerprint: vals[fieldFingerprint]}, nil
}

func (s *CheckpointStore) Save(ctx context.Context, key string, cp repository.Checkpoint) error {
	err := s.client.rdb.HSet(ctx, checkpointPrefix+key,
		fieldNextBatch, cp.NextBatch,
		fieldFingerprint, cp.Fingerprint,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *CheckpointStore) Clear(ctx context.Context, key string) error {
	if err := s.client.rdb.Del(ctx, checkpointPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}

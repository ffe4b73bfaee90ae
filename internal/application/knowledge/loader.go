package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
	"monk-ai-api/internal/domain/repository"
	"monk-ai-api/pkg/logger"
)

// Index 导入流程对向量索引的依赖
type Index interface {
	EnsureReady(ctx context.Context) error
	AddDocuments(ctx context.Context, passages []*entity.Passage, opts retrieval.AddOptions) (*retrieval.BatchReport, error)
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// Result 一次导入的结果
type Result struct {
	Files      int
	Documents  int
	Passages   int
	Batches    int
	ResumeFrom int
	// StaleCheckpoint 检查点属于另一份数据集，已被忽略
	StaleCheckpoint bool
}

// Loader 读取数据目录、切分并分批写入；中断后按检查点续传
type Loader struct {
	index         Index
	checkpoints   repository.CheckpointStore
	splitter      *retrieval.Splitter
	checkpointKey string
}

// NewLoader checkpointKey 通常为集合名
func NewLoader(index Index, checkpoints repository.CheckpointStore, splitter *retrieval.Splitter, checkpointKey string) *Loader {
	return &Loader{
		index:         index,
		checkpoints:   checkpoints,
		splitter:      splitter,
		checkpointKey: checkpointKey,
	}
}

// LoadDir 导入目录下全部数据文件；restart 为 true 时忽略已有检查点
func (l *Loader) LoadDir(ctx context.Context, dir string, restart bool) (*Result, error) {
	files, err := DataFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .jsonl, .csv or .txt files in %s", dir)
	}

	var docs []Document
	for _, f := range files {
		d, err := ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		logger.Info(ctx, "data file loaded", "file", f, "documents", len(d))
		docs = append(docs, d...)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents found in %s", dir)
	}

	passages, err := Chunk(ctx, docs, l.splitter)
	if err != nil {
		return nil, err
	}
	res := &Result{Files: len(files), Documents: len(docs), Passages: len(passages)}
	logger.Info(ctx, "documents chunked", "documents", len(docs), "passages", len(passages))

	if err := l.index.EnsureReady(ctx); err != nil {
		return res, err
	}

	fingerprint := Fingerprint(files, passages)
	if restart {
		if err := l.checkpoints.Clear(ctx, l.checkpointKey); err != nil {
			return res, fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	} else {
		cp, err := l.checkpoints.Load(ctx, l.checkpointKey)
		if err != nil {
			return res, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		switch {
		case cp == nil:
		case cp.Fingerprint != fingerprint:
			// 数据集已变化，旧批次号指向的片段不同
			res.StaleCheckpoint = true
			logger.Warn(ctx, "checkpoint does not match the dataset, starting from the first batch",
				"checkpoint_batch", cp.NextBatch)
		default:
			res.ResumeFrom = cp.NextBatch
			logger.Info(ctx, "resuming ingestion", "from_batch", cp.NextBatch)
		}
	}

	report, err := l.index.AddDocuments(ctx, passages, retrieval.AddOptions{
		ResumeFrom: res.ResumeFrom,
		OnBatchDone: func(ctx context.Context, nextBatch int) error {
			return l.checkpoints.Save(ctx, l.checkpointKey, repository.Checkpoint{
				NextBatch:   nextBatch,
				Fingerprint: fingerprint,
			})
		},
	})
	if report != nil {
		res.Batches = report.Total
	}
	if err != nil {
		return res, err
	}

	if err := l.checkpoints.Clear(ctx, l.checkpointKey); err != nil {
		logger.Warn(ctx, "failed to clear checkpoint", "error", err.Error())
	}
	return res, nil
}

// Reset 删除集合并清除检查点
func (l *Loader) Reset(ctx context.Context) error {
	if err := l.index.Reset(ctx); err != nil {
		return err
	}
	return l.checkpoints.Clear(ctx, l.checkpointKey)
}

// Count 返回集合行数
func (l *Loader) Count(ctx context.Context) (int64, error) {
	return l.index.Count(ctx)
}

// Fingerprint 数据集指纹：文件名、片段数与片段内容，顺序敏感
func Fingerprint(files []string, passages []*entity.Passage) string {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "file:%s\n", filepath.Base(f))
	}
	fmt.Fprintf(h, "passages:%d\n", len(passages))
	for _, p := range passages {
		_, _ = io.WriteString(h, p.Text)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

package retrieval

import (
	"context"

	"monk-ai-api/internal/domain/entity"
)

// Candidate 向量粗召回结果，Similarity 越大越相关
type Candidate struct {
	Passage    entity.Passage
	Similarity float64
}

// Evidence 重排后交给生成阶段的证据，Rank 从 1 开始
type Evidence struct {
	Text  string
	Meta  entity.PassageMeta
	Score float64
	Rank  int
}

// BatchReport 批量入库结果，FailedBatch 为 -1 表示全部成功
type BatchReport struct {
	Total       int
	Succeeded   []int
	FailedBatch int
	Err         error
}

// NextBatch 返回续传时应当开始的批次序号
func (r *BatchReport) NextBatch() int {
	if r == nil {
		return 0
	}
	if r.FailedBatch >= 0 {
		return r.FailedBatch
	}
	return r.Total
}

// AddOptions 入库选项
type AddOptions struct {
	// ResumeFrom 跳过此序号之前的批次
	ResumeFrom int
	// OnBatchDone 每个批次写入成功后回调，参数为下一个批次序号
	OnBatchDone func(ctx context.Context, nextBatch int) error
}

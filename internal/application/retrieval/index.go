package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"monk-ai-api/internal/domain/entity"
	"monk-ai-api/pkg/logger"
	"monk-ai-api/pkg/metrics"
)

const (
	DefaultAddBatchSize   = 100
	defaultEmbeddingBatch = 32
)

// VectorIndex 组合 Embedder 与 VectorStore：文本进，候选出
type VectorIndex struct {
	embedder embedding.Embedder
	store    VectorStore

	addBatchSize       int
	embeddingBatchSize int
}

// NewVectorIndex 创建向量索引
func NewVectorIndex(embedder embedding.Embedder, store VectorStore, addBatchSize, embeddingBatchSize int) *VectorIndex {
	if addBatchSize <= 0 {
		addBatchSize = DefaultAddBatchSize
	}
	if embeddingBatchSize <= 0 {
		embeddingBatchSize = defaultEmbeddingBatch
	}
	return &VectorIndex{
		embedder:           embedder,
		store:              store,
		addBatchSize:       addBatchSize,
		embeddingBatchSize: embeddingBatchSize,
	}
}

func (i *VectorIndex) Enabled() bool {
	return i != nil && i.embedder != nil && i.store != nil
}

// EnsureReady 建集合/建索引并加载，同时校验度量类型
func (i *VectorIndex) EnsureReady(ctx context.Context) error {
	if !i.Enabled() {
		return indexUnavailable(ErrVectorDisabled)
	}
	return i.store.EnsureCollection(ctx)
}

// Search 对查询做向量化后召回 top-k；只读
func (i *VectorIndex) Search(ctx context.Context, query string, k int) ([]Candidate, error) {
	if k <= 0 {
		return nil, configurationError(fmt.Sprintf("retrieval width must be positive, got %d", k))
	}
	if !i.Enabled() {
		return nil, indexUnavailable(ErrVectorDisabled)
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	// 查询向量化是检索的一部分，Embedder 不可达同样视为索引不可用
	vecs, err := i.embed(ctx, []string{q})
	if err != nil {
		return nil, indexUnavailable(err)
	}
	if len(vecs) == 0 {
		return nil, indexUnavailable(fmt.Errorf("empty embedding result"))
	}

	out, err := i.store.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, indexUnavailable(err)
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// AddDocuments 按固定批次写入；非幂等，调用方负责去重。
// 某个批次失败时立即停止，报告中记录已成功的批次与失败批次，续传从 FailedBatch 开始。
func (i *VectorIndex) AddDocuments(ctx context.Context, passages []*entity.Passage, opts AddOptions) (*BatchReport, error) {
	opts.ResumeFrom = max(opts.ResumeFrom, 0)
	total := (len(passages) + i.addBatchSize - 1) / i.addBatchSize
	report := &BatchReport{Total: total, FailedBatch: -1}
	if !i.Enabled() {
		report.Err = indexUnavailable(ErrVectorDisabled)
		report.FailedBatch = opts.ResumeFrom
		return report, report.Err
	}

	for b := opts.ResumeFrom; b < total; b++ {
		start := b * i.addBatchSize
		end := min(start+i.addBatchSize, len(passages))

		if err := i.addBatch(ctx, passages[start:end]); err != nil {
			metrics.IngestBatchesTotal.WithLabelValues("failed").Inc()
			report.FailedBatch = b
			report.Err = fmt.Errorf("batch %d/%d: %w", b+1, total, err)
			return report, report.Err
		}
		metrics.IngestBatchesTotal.WithLabelValues("succeeded").Inc()
		report.Succeeded = append(report.Succeeded, b)
		logger.Debug(ctx, "knowledge batch inserted", "batch", b+1, "total", total, "size", end-start)

		if opts.OnBatchDone != nil {
			if err := opts.OnBatchDone(ctx, b+1); err != nil {
				logger.Warn(ctx, "failed to save ingestion checkpoint", "batch", b+1, "error", err.Error())
			}
		}
	}
	return report, nil
}

func (i *VectorIndex) addBatch(ctx context.Context, batch []*entity.Passage) error {
	texts := make([]string, 0, len(batch))
	rows := make([]*entity.Passage, 0, len(batch))
	for _, p := range batch {
		if p == nil || strings.TrimSpace(p.Text) == "" {
			continue
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		texts = append(texts, p.Text)
		rows = append(rows, p)
	}
	if len(rows) == 0 {
		return nil
	}

	vecs, err := i.embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(rows) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(rows))
	}
	for idx := range rows {
		rows[idx].Embedding = vecs[idx]
	}
	return i.store.Insert(ctx, rows)
}

// Count 返回集合行数
func (i *VectorIndex) Count(ctx context.Context) (int64, error) {
	if !i.Enabled() {
		return 0, indexUnavailable(ErrVectorDisabled)
	}
	n, err := i.store.Count(ctx)
	if err != nil {
		return 0, indexUnavailable(err)
	}
	return n, nil
}

// Reset 删除集合
func (i *VectorIndex) Reset(ctx context.Context) error {
	if !i.Enabled() {
		return indexUnavailable(ErrVectorDisabled)
	}
	return i.store.Drop(ctx)
}

func (i *VectorIndex) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := min(start+i.embeddingBatchSize, len(texts))
		v64, err := i.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed texts: %w", err)
		}
		for _, vec := range v64 {
			f32 := make([]float32, len(vec))
			for j, x := range vec {
				f32[j] = float32(x)
			}
			out = append(out, f32)
		}
	}
	return out, nil
}

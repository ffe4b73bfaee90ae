package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "monk-ai-api/pkg/errors"
	"monk-ai-api/pkg/metrics"
)

// Repository 单集合的向量仓储
type Repository struct {
	client     *Client
	collection string
	dim        int
	metric     entity.MetricType
}

// NewRepository 创建向量仓储
func NewRepository(client *Client, collection string, dim int) *Repository {
	if collection == "" {
		collection = DefaultCollection
	}
	metric := entity.COSINE
	if client != nil && client.config != nil && client.config.MetricType != "" {
		metric = entity.MetricType(strings.ToUpper(client.config.MetricType))
	}
	return &Repository{
		client:     client,
		collection: collection,
		dim:        dim,
		metric:     metric,
	}
}

// Collection 返回集合名
func (r *Repository) Collection() string {
	return r.collection
}

func (r *Repository) ready() error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	return nil
}

// EnsureCollection 确保集合与索引可用（不存在则创建），并校验已有索引的度量类型与配置一致。
// 不做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", r.collection)))
	defer span.End()

	exists, err := r.client.HasCollection(ctx, r.collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		if err := r.client.milvus.CreateCollection(ctx, ScripturesSchema(r.collection, r.dim), entity.DefaultShardNumber); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := r.createIndex(ctx); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := r.checkMetric(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	return r.client.LoadCollection(ctx, r.collection)
}

func (r *Repository) createIndex(ctx context.Context) error {
	idx, err := entity.NewIndexHNSW(r.metric, r.client.config.HNSWM, r.client.config.HNSWEfConstruction)
	if err != nil {
		return fmt.Errorf("failed to build index params: %w", err)
	}
	if err := r.client.milvus.CreateIndex(ctx, r.collection, fieldVector, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// checkMetric 读取向量索引的度量类型，与配置不符时返回配置错误
func (r *Repository) checkMetric(ctx context.Context) error {
	indexes, err := r.client.milvus.DescribeIndex(ctx, r.collection, fieldVector)
	if err != nil {
		return fmt.Errorf("failed to describe index: %w", err)
	}
	params := make([]map[string]string, 0, len(indexes))
	for _, idx := range indexes {
		params = append(params, idx.Params())
	}
	return compareMetric(r.collection, r.metric, params)
}

// compareMetric 未声明 metric_type 的索引跳过
func compareMetric(collection string, configured entity.MetricType, params []map[string]string) error {
	for _, p := range params {
		got := strings.ToUpper(p["metric_type"])
		if got == "" {
			continue
		}
		if entity.MetricType(got) != configured {
			return apperrors.New(apperrors.CodeConfigInvalid, "vector index metric mismatch").
				WithDetail(fmt.Sprintf("collection %s uses %s, configured %s", collection, got, configured))
		}
	}
	return nil
}

// SearchPassages 向量检索
func (r *Repository) SearchPassages(ctx context.Context, vector []float32, topK int) ([]*SearchResult, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchPassages",
		trace.WithAttributes(
			attribute.String("collection", r.collection),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.MilvusSearchDuration.WithLabelValues(r.collection).Observe(time.Since(start).Seconds())
	}()

	ef := r.client.config.HNSWEf
	if ef < topK {
		ef = topK
	}
	sp, err := entity.NewIndexHNSWSearchParam(ef)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		r.collection,
		nil,
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		fieldVector,
		r.metric,
		topK,
		sp,
	)
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(r.collection, "error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(r.collection, "ok").Inc()

	var out []*SearchResult
	for _, result := range results {
		if result.Err != nil {
			span.RecordError(result.Err)
			return nil, fmt.Errorf("failed to search: %w", result.Err)
		}
		for i := 0; i < result.ResultCount; i++ {
			sr := &SearchResult{
				Score:       result.Scores[i],
				ID:          varcharAt(result.Fields, fieldID, i),
				BookName:    varcharAt(result.Fields, fieldBookName, i),
				Chapter:     varcharAt(result.Fields, fieldChapter, i),
				Section:     varcharAt(result.Fields, fieldSection, i),
				VerseNumber: varcharAt(result.Fields, fieldVerseNumber, i),
				TextContent: varcharAt(result.Fields, fieldTextContent, i),
			}
			out = append(out, sr)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

func varcharAt(fields client.ResultSet, name string, i int) string {
	col, ok := fields.GetColumn(name).(*entity.ColumnVarChar)
	if !ok || i >= col.Len() {
		return ""
	}
	return col.Data()[i]
}

// InsertPassages 写入一批经文片段
func (r *Repository) InsertPassages(ctx context.Context, rows []*PassageRow) error {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertPassages",
		trace.WithAttributes(
			attribute.String("collection", r.collection),
			attribute.Int("count", len(rows)),
		))
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	ids := make([]string, len(rows))
	vectors := make([][]float32, len(rows))
	books := make([]string, len(rows))
	chapters := make([]string, len(rows))
	sections := make([]string, len(rows))
	verses := make([]string, len(rows))
	texts := make([]string, len(rows))
	for i, row := range rows {
		if len(row.Vector) != r.dim {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, want %d", row.ID, len(row.Vector), r.dim)
		}
		ids[i] = row.ID
		vectors[i] = row.Vector
		books[i] = row.BookName
		chapters[i] = row.Chapter
		sections[i] = row.Section
		verses[i] = row.VerseNumber
		texts[i] = row.TextContent
	}

	_, err := r.client.milvus.Insert(ctx, r.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldVector, r.dim, vectors),
		entity.NewColumnVarChar(fieldBookName, books),
		entity.NewColumnVarChar(fieldChapter, chapters),
		entity.NewColumnVarChar(fieldSection, sections),
		entity.NewColumnVarChar(fieldVerseNumber, verses),
		entity.NewColumnVarChar(fieldTextContent, texts),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert passages: %w", err)
	}

	// 异步 flush，使行数统计尽快可见
	if err := r.client.milvus.Flush(ctx, r.collection, true); err != nil {
		span.RecordError(err)
	}
	return nil
}

// CountRows 返回集合行数
func (r *Repository) CountRows(ctx context.Context) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	ctx, span := tracer.Start(ctx, "milvus.CountRows",
		trace.WithAttributes(attribute.String("collection", r.collection)))
	defer span.End()

	exists, err := r.client.HasCollection(ctx, r.collection)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return 0, nil
	}

	stats, err := r.client.milvus.GetCollectionStatistics(ctx, r.collection)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	n, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid row_count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

// DropCollection 删除集合；集合不存在时视为成功
func (r *Repository) DropCollection(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.DropCollection",
		trace.WithAttributes(attribute.String("collection", r.collection)))
	defer span.End()

	exists, err := r.client.HasCollection(ctx, r.collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return nil
	}
	if err := r.client.milvus.DropCollection(ctx, r.collection); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// similarity 将 Milvus 分数统一为越大越相似
func (r *Repository) similarity(score float32) float64 {
	if r.metric == entity.L2 {
		return 1 / (1 + float64(score))
	}
	return float64(score)
}

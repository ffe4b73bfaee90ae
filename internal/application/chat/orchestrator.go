package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
	apperrors "monk-ai-api/pkg/errors"
	"monk-ai-api/pkg/logger"
	"monk-ai-api/pkg/metrics"
)

const (
	// FallbackAnswer 向量库没有命中时的固定回答
	FallbackAnswer = "I could not find relevant information in the scriptures to answer your question."
	// ClarificationAnswer 语音转写为空时的提示
	ClarificationAnswer = "I couldn't understand what you said. Could you please speak clearly?"
	// ClarificationAnswerHindi 同上，印地语
	ClarificationAnswerHindi = "मुझे समझ नहीं आया कि आपने क्या कहा। क्या आप कृपया स्पष्ट रूप से बोल सकते हैं?"
)

// 编排阶段
const (
	stageRetrieving    = "retrieving"
	stageEmptyFallback = "empty_fallback"
	stageGenerating    = "generating"
	stageEnriching     = "enriching"
	stagePersisting    = "persisting"
	stageTranscribing  = "transcribing"
)

var tracer = otel.Tracer("chat")

// QueryRequest 文本问答请求
type QueryRequest struct {
	Query     string
	Mode      string
	SessionID string
}

// VoiceRequest 语音问答请求
type VoiceRequest struct {
	Audio     io.Reader
	Filename  string
	Mode      string
	SessionID string
}

// QueryResponse 问答结果；KeywordExplanations 仅在初学者模式下非 nil
type QueryResponse struct {
	Answer              string
	HindiTranslation    string
	Citations           []entity.Citation
	Recommendations     []string
	KeywordExplanations map[string]string
	SessionID           string
	Transcription       string
}

// Retriever 编排器对检索引擎的依赖
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]retrieval.Evidence, error)
}

// AnswerGenerator 编排器对生成器的依赖
type AnswerGenerator interface {
	Generate(ctx context.Context, msgs []*schema.Message) (string, error)
}

// Timeouts 各阶段超时，零值表示不额外限制
type Timeouts struct {
	Retrieval   time.Duration
	Persistence time.Duration
}

// Orchestrator 单次问答的顺序流水线：检索 -> 生成 -> 增强 -> 持久化
type Orchestrator struct {
	retriever   Retriever
	prompts     *PromptBuilder
	generator   AnswerGenerator
	enricher    *Enricher
	store       SessionStore
	transcriber Transcriber
	timeouts    Timeouts
}

func NewOrchestrator(
	retriever Retriever,
	prompts *PromptBuilder,
	generator AnswerGenerator,
	enricher *Enricher,
	store SessionStore,
	transcriber Transcriber,
	timeouts Timeouts,
) *Orchestrator {
	return &Orchestrator{
		retriever:   retriever,
		prompts:     prompts,
		generator:   generator,
		enricher:    enricher,
		store:       store,
		transcriber: transcriber,
		timeouts:    timeouts,
	}
}

// ProcessQuery 处理一次文本问答
func (o *Orchestrator) ProcessQuery(ctx context.Context, userID string, req QueryRequest) (*QueryResponse, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "query is required")
	}
	if err := checkSessionID(req.SessionID); err != nil {
		return nil, err
	}
	if req.SessionID != "" {
		ctx = logger.WithContext(ctx, logger.SessionIDKey, req.SessionID)
	}

	ctx, span := tracer.Start(ctx, "chat.ProcessQuery",
		trace.WithAttributes(attribute.String("mode", mode.String())))
	defer span.End()

	resp, outcome, err := o.run(ctx, userID, query, mode, req.SessionID)
	metrics.ChatQueryTotal.WithLabelValues(mode.String(), outcome).Inc()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return resp, nil
}

func (o *Orchestrator) run(ctx context.Context, userID, query string, mode Mode, sessionID string) (*QueryResponse, string, error) {
	qh := QueryHash(query)
	logStage := func(stage string, start time.Time, args ...any) {
		metrics.ChatStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		args = append([]any{"stage", stage, "query_hash", qh, "mode", mode.String(), "duration_ms", time.Since(start).Milliseconds()}, args...)
		logger.Info(ctx, "chat stage completed", args...)
	}

	// RETRIEVING
	start := time.Now()
	rctx, cancel := withTimeout(ctx, o.timeouts.Retrieval)
	evidence, err := o.retriever.Retrieve(rctx, query)
	cancel()
	if err != nil {
		logger.Error(ctx, "retrieval failed", err, "stage", stageRetrieving, "query_hash", qh)
		if !apperrors.IsAppError(err) {
			err = apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "retrieval failed")
		}
		return nil, "error", err
	}
	logStage(stageRetrieving, start, "evidence", len(evidence))

	// EMPTY_FALLBACK
	if len(evidence) == 0 {
		start = time.Now()
		resp := &QueryResponse{
			Answer:           FallbackAnswer,
			HindiTranslation: o.enricher.Translate(ctx, FallbackAnswer),
			Citations:        []entity.Citation{},
			Recommendations:  []string{},
			SessionID:        sessionID,
		}
		logStage(stageEmptyFallback, start)
		return resp, "fallback", nil
	}

	// GENERATING
	start = time.Now()
	msgs, err := o.prompts.Messages(ctx, query, evidence, mode)
	if err != nil {
		return nil, "error", err
	}
	answer, err := o.generator.Generate(ctx, msgs)
	if err != nil {
		logger.Error(ctx, "generation failed", err, "stage", stageGenerating, "query_hash", qh)
		return nil, "error", err
	}
	logStage(stageGenerating, start)

	resp := &QueryResponse{
		Answer:          answer,
		Citations:       BuildCitations(evidence),
		Recommendations: Recommendations(evidence),
	}

	// ENRICHING
	start = time.Now()
	resp.HindiTranslation = o.enricher.Translate(ctx, answer)
	if mode == ModeBeginner {
		resp.KeywordExplanations = o.enricher.Explain(ctx, answer)
	}
	logStage(stageEnriching, start)

	// PERSISTING：写入与调用方取消解耦，已完成的写入不会因客户端断开而回滚
	start = time.Now()
	pctx, cancel := withTimeout(context.WithoutCancel(ctx), o.timeouts.Persistence)
	defer cancel()
	sid, err := o.persist(pctx, userID, sessionID, query, mode, resp)
	if err != nil {
		logger.Error(ctx, "failed to create session", err, "stage", stagePersisting, "query_hash", qh)
		return nil, "error", err
	}
	resp.SessionID = sid
	logStage(stagePersisting, start, "session_id", sid)

	return resp, "answered", nil
}

// persist 无 session_id 时先建会话，再依次追加用户消息与助手消息；追加失败只记录告警
func (o *Orchestrator) persist(ctx context.Context, userID, sessionID, query string, mode Mode, resp *QueryResponse) (string, error) {
	if sessionID == "" {
		id, err := o.store.CreateSession(ctx, userID, SessionTitle(query))
		if err != nil {
			return "", err
		}
		sessionID = id
	}

	userMsg := entity.NewUserMessage(query, mode.String())
	if err := o.store.AppendMessage(ctx, sessionID, userID, userMsg); err != nil {
		logger.Warn(ctx, "failed to persist user message", "stage", stagePersisting, "session_id", sessionID, "error", err.Error())
		return sessionID, nil
	}

	assistantMsg := entity.NewAssistantMessage(resp.Answer, mode.String(), resp.HindiTranslation, resp.Citations, resp.Recommendations)
	if err := o.store.AppendMessage(ctx, sessionID, userID, assistantMsg); err != nil {
		logger.Warn(ctx, "failed to persist assistant message", "stage", stagePersisting, "session_id", sessionID, "error", err.Error())
	}
	return sessionID, nil
}

// ProcessVoiceQuery 转写语音后按文本问答处理；转写为空时返回澄清提示，不做检索与持久化
func (o *Orchestrator) ProcessVoiceQuery(ctx context.Context, userID string, req VoiceRequest) (*QueryResponse, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if err := checkSessionID(req.SessionID); err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := o.transcriber.Transcribe(ctx, req.Audio, req.Filename)
	if err != nil {
		metrics.ChatQueryTotal.WithLabelValues(mode.String(), "error").Inc()
		logger.Error(ctx, "transcription failed", err, "stage", stageTranscribing)
		if apperrors.HasCode(err, apperrors.CodeTranscriptionFailed) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.CodeTranscriptionFailed, "transcription failed")
	}
	metrics.ChatStageDuration.WithLabelValues(stageTranscribing).Observe(time.Since(start).Seconds())

	text = strings.TrimSpace(text)
	if text == "" {
		metrics.ChatQueryTotal.WithLabelValues(mode.String(), "clarify").Inc()
		logger.Info(ctx, "empty transcription, asking for clarification", "stage", stageTranscribing, "mode", mode.String())
		return &QueryResponse{
			Answer:           ClarificationAnswer,
			HindiTranslation: ClarificationAnswerHindi,
			Citations:        []entity.Citation{},
			Recommendations:  []string{},
			SessionID:        req.SessionID,
		}, nil
	}

	resp, err := o.ProcessQuery(ctx, userID, QueryRequest{Query: text, Mode: mode.String(), SessionID: req.SessionID})
	if err != nil {
		return nil, err
	}
	resp.Transcription = text
	return resp, nil
}

// checkSessionID 空值表示新建会话
func checkSessionID(id string) error {
	if id == "" || ValidSessionID(id) {
		return nil
	}
	return apperrors.New(apperrors.CodeValidationFailed, "invalid session_id")
}

// QueryHash 日志中用于关联查询的短哈希，避免记录原文
func QueryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:12]
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

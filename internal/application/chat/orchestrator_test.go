package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
	apperrors "monk-ai-api/pkg/errors"
)

type orchestratorDeps struct {
	retriever   *fakeRetriever
	generator   *fakeGenerator
	explainer   *fakeExplainer
	store       *fakeSessionStore
	transcriber *fakeTranscriber
	translator  fakeTranslator
}

func newDeps() *orchestratorDeps {
	return &orchestratorDeps{
		retriever:   &fakeRetriever{evidence: gitaEvidence()},
		generator:   &fakeGenerator{answer: "Karma is action performed without attachment to its fruits."},
		explainer:   &fakeExplainer{out: map[string]string{"Karma": "Action and its consequences."}},
		store:       &fakeSessionStore{},
		transcriber: &fakeTranscriber{},
		translator:  fakeTranslator{out: "कर्म"},
	}
}

func (d *orchestratorDeps) build(t *testing.T) *Orchestrator {
	t.Helper()
	prompts, err := NewPromptBuilder()
	require.NoError(t, err)
	return NewOrchestrator(
		d.retriever,
		prompts,
		d.generator,
		NewEnricher(d.translator, d.explainer, time.Second),
		d.store,
		d.transcriber,
		Timeouts{Retrieval: time.Second, Persistence: time.Second},
	)
}

func TestProcessQuery_BeginnerEndToEnd(t *testing.T) {
	d := newDeps()

	resp, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "What is karma?", Mode: "beginner"})
	require.NoError(t, err)

	assert.Equal(t, "Karma is action performed without attachment to its fruits.", resp.Answer)
	assert.Equal(t, "कर्म", resp.HindiTranslation)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "Bhagavad Gita", resp.Citations[0].Book)
	assert.Equal(t, []string{"Bhagavad Gita"}, resp.Recommendations)
	assert.Equal(t, map[string]string{"Karma": "Action and its consequences."}, resp.KeywordExplanations)
	assert.Equal(t, "session-new", resp.SessionID)

	assert.Equal(t, []string{"What is karma?"}, d.store.created)
	require.Len(t, d.store.appended, 2)
	assert.Equal(t, entity.RoleUser, d.store.appended[0].msg.Role)
	assert.Equal(t, "What is karma?", d.store.appended[0].msg.Content)
	assert.Equal(t, entity.RoleAssistant, d.store.appended[1].msg.Role)
	assert.Equal(t, "कर्म", d.store.appended[1].msg.HindiTranslation)
	assert.Len(t, d.store.appended[1].msg.Citations, 1)
	assert.Equal(t, "user-1", d.store.appended[1].userID)
}

func TestProcessQuery_ExpertHasNoKeywordExplanations(t *testing.T) {
	d := newDeps()

	resp, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "Explain nishkama karma", Mode: "expert", SessionID: "0b9c5a0e-6d7f-4e3a-9a51-3c2f1d8e7b64"})
	require.NoError(t, err)

	assert.Nil(t, resp.KeywordExplanations)
	assert.Zero(t, d.explainer.calls)
	assert.Equal(t, "0b9c5a0e-6d7f-4e3a-9a51-3c2f1d8e7b64", resp.SessionID)
	assert.Empty(t, d.store.created)
	assert.Equal(t, "0b9c5a0e-6d7f-4e3a-9a51-3c2f1d8e7b64", d.store.appended[0].sessionID)
}

func TestProcessQuery_EmptyIndexReturnsFallback(t *testing.T) {
	d := newDeps()
	d.retriever.evidence = nil

	resp, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "What is karma?", Mode: "beginner", SessionID: "7e4d2c1b-0a9f-4b8e-8d7c-6f5e4d3c2b1a"})
	require.NoError(t, err)

	assert.Equal(t, FallbackAnswer, resp.Answer)
	assert.Equal(t, "कर्म", resp.HindiTranslation)
	assert.Empty(t, resp.Citations)
	assert.Empty(t, resp.Recommendations)
	assert.Equal(t, "7e4d2c1b-0a9f-4b8e-8d7c-6f5e4d3c2b1a", resp.SessionID)
	assert.Zero(t, d.generator.calls)
	assert.Empty(t, d.store.appended)
	assert.Empty(t, d.store.created)
}

func TestProcessQuery_UnknownMode(t *testing.T) {
	d := newDeps()

	_, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "q", Mode: "guru"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	assert.Zero(t, d.retriever.calls)
}

func TestProcessQuery_MalformedSessionIDRejected(t *testing.T) {
	d := newDeps()

	_, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "What is karma?", Mode: "beginner", SessionID: "<script>"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	assert.NotContains(t, err.Error(), "<script>")
	assert.Zero(t, d.retriever.calls)
	assert.Empty(t, d.store.appended)
}

func TestProcessVoiceQuery_MalformedSessionIDRejected(t *testing.T) {
	d := newDeps()
	d.transcriber.text = "   "

	_, err := d.build(t).ProcessVoiceQuery(context.Background(), "user-1", VoiceRequest{Audio: strings.NewReader("..."), Filename: "a.webm", Mode: "beginner", SessionID: "s-1"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestProcessQuery_RetrievalFailureAborts(t *testing.T) {
	d := newDeps()
	d.retriever.err = apperrors.New(apperrors.CodeIndexUnavailable, "vector index unavailable")

	_, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "q", Mode: "beginner"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIndexUnavailable))
	assert.Zero(t, d.generator.calls)
}

func TestProcessQuery_GenerationFailureAborts(t *testing.T) {
	d := newDeps()
	d.generator.err = apperrors.New(apperrors.CodeGenerationFailed, "answer generation failed")

	_, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "q", Mode: "beginner"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGenerationFailed))
	assert.Empty(t, d.store.appended)
}

func TestProcessQuery_EnrichmentFailuresDegrade(t *testing.T) {
	d := newDeps()
	d.translator = fakeTranslator{err: errors.New("quota exceeded")}
	d.explainer.err = errors.New("search down")

	resp, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "What is karma?", Mode: "beginner"})
	require.NoError(t, err)
	assert.Equal(t, TranslationUnavailable, resp.HindiTranslation)
	assert.Equal(t, map[string]string{}, resp.KeywordExplanations)
}

func TestProcessQuery_AppendFailureIsNotFatal(t *testing.T) {
	d := newDeps()
	d.store.appendErr = errors.New("db down")

	resp, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "What is karma?", Mode: "beginner"})
	require.NoError(t, err)
	assert.Equal(t, "session-new", resp.SessionID)
}

func TestProcessQuery_CreateSessionFailureIsError(t *testing.T) {
	d := newDeps()
	d.store.createErr = apperrors.New(apperrors.CodeDatabaseError, "failed to create session")

	_, err := d.build(t).ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "What is karma?", Mode: "beginner"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
}

func TestProcessQuery_PersistenceSurvivesCallerCancel(t *testing.T) {
	d := newDeps()
	ctx, cancel := context.WithCancel(context.Background())
	d.generator = &fakeGenerator{answer: "answer"}
	o := d.build(t)
	o.generator = cancelingGenerator{inner: d.generator, cancel: cancel}

	_, err := o.ProcessQuery(ctx, "user-1", QueryRequest{Query: "What is karma?", Mode: "expert"})
	require.NoError(t, err)
	assert.NoError(t, d.store.ctxErr)
	assert.Len(t, d.store.appended, 2)
}

func TestProcessVoiceQuery_SilenceAsksForClarification(t *testing.T) {
	d := newDeps()
	d.transcriber.text = "   "

	resp, err := d.build(t).ProcessVoiceQuery(context.Background(), "user-1", VoiceRequest{Audio: strings.NewReader("..."), Filename: "a.webm", Mode: "beginner"})
	require.NoError(t, err)

	assert.Equal(t, ClarificationAnswer, resp.Answer)
	assert.Equal(t, ClarificationAnswerHindi, resp.HindiTranslation)
	assert.Zero(t, d.retriever.calls)
	assert.Zero(t, d.generator.calls)
	assert.Empty(t, d.store.created)
	assert.Empty(t, d.store.appended)
}

func TestProcessVoiceQuery_Transcribed(t *testing.T) {
	d := newDeps()
	d.transcriber.text = " What is karma? "

	resp, err := d.build(t).ProcessVoiceQuery(context.Background(), "user-1", VoiceRequest{Audio: strings.NewReader("..."), Filename: "a.webm", Mode: "beginner"})
	require.NoError(t, err)
	assert.Equal(t, "What is karma?", resp.Transcription)
	assert.Equal(t, 1, d.generator.calls)
	assert.Equal(t, "What is karma?", d.store.appended[0].msg.Content)
}

func TestProcessVoiceQuery_TranscriptionFailure(t *testing.T) {
	d := newDeps()
	d.transcriber.err = errors.New("whisper 500")

	_, err := d.build(t).ProcessVoiceQuery(context.Background(), "user-1", VoiceRequest{Audio: strings.NewReader("..."), Mode: "beginner"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTranscriptionFailed))
	assert.Zero(t, d.retriever.calls)
}

func TestProcessQuery_WithRealEngine(t *testing.T) {
	d := newDeps()
	o := d.build(t)
	o.retriever = retrieval.NewEngine(staticSearcher{}, failingReranker{}, 15, 3)

	resp, err := o.ProcessQuery(context.Background(), "user-1", QueryRequest{Query: "What is karma?", Mode: "beginner"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bhagavad Gita"}, resp.Recommendations)
	assert.Equal(t, "Bhagavad Gita", resp.Citations[0].Book)
}

func TestQueryHash(t *testing.T) {
	assert.Len(t, QueryHash("What is karma?"), 12)
	assert.Equal(t, QueryHash("a"), QueryHash("a"))
	assert.NotEqual(t, QueryHash("a"), QueryHash("b"))
}

type cancelingGenerator struct {
	inner  *fakeGenerator
	cancel context.CancelFunc
}

func (g cancelingGenerator) Generate(ctx context.Context, msgs []*schema.Message) (string, error) {
	defer g.cancel()
	return g.inner.Generate(ctx, msgs)
}

type staticSearcher struct{}

func (staticSearcher) Search(context.Context, string, int) ([]retrieval.Candidate, error) {
	ev := gitaEvidence()[0]
	return []retrieval.Candidate{{Passage: entity.Passage{Text: ev.Text, Meta: ev.Meta}, Similarity: 0.8}}, nil
}

type failingReranker struct{}

func (failingReranker) Score(context.Context, string, []string) ([]float64, error) {
	return nil, errors.New("reranker offline")
}

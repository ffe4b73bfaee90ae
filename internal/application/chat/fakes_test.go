package chat

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
)

type fakeChatModel struct {
	reply string
	err   error
	calls int
	last  []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls++
	m.last = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeFactory struct {
	models map[string]*fakeChatModel
}

func (f *fakeFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	m, ok := f.models[name]
	if !ok {
		return nil, errors.New("provider " + name + " not found")
	}
	return m, nil
}

type fakeRetriever struct {
	evidence []retrieval.Evidence
	err      error
	calls    int
}

func (r *fakeRetriever) Retrieve(context.Context, string) ([]retrieval.Evidence, error) {
	r.calls++
	return r.evidence, r.err
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *fakeGenerator) Generate(context.Context, []*schema.Message) (string, error) {
	g.calls++
	return g.answer, g.err
}

type fakeTranslator struct {
	out string
	err error
}

func (t fakeTranslator) Translate(context.Context, string) (string, error) {
	return t.out, t.err
}

type fakeExplainer struct {
	out   map[string]string
	err   error
	calls int
}

func (e *fakeExplainer) Explain(context.Context, string) (map[string]string, error) {
	e.calls++
	return e.out, e.err
}

type fakeLookup struct {
	defs    map[string]string
	err     error
	queries []string
}

func (l *fakeLookup) Lookup(_ context.Context, query string) (string, error) {
	l.queries = append(l.queries, query)
	if l.err != nil {
		return "", l.err
	}
	return l.defs[query], nil
}

type storedMessage struct {
	sessionID string
	userID    string
	msg       *entity.ChatMessage
}

type fakeSessionStore struct {
	mu        sync.Mutex
	created   []string
	createErr error
	appendErr error
	appended  []storedMessage
	ctxErr    error
}

func (s *fakeSessionStore) CreateSession(_ context.Context, _ string, title string) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, title)
	return "session-new", nil
}

func (s *fakeSessionStore) AppendMessage(ctx context.Context, sessionID, userID string, msg *entity.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxErr = ctx.Err()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, storedMessage{sessionID: sessionID, userID: userID, msg: msg})
	return nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (t *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	t.calls++
	if audio != nil {
		_, _ = io.Copy(io.Discard, audio)
	}
	return t.text, t.err
}

func gitaEvidence() []retrieval.Evidence {
	return []retrieval.Evidence{{
		Text:  "You have a right to perform your prescribed duty, but you are not entitled to the fruits of action.",
		Meta:  entity.PassageMeta{BookName: "Bhagavad Gita", Chapter: "2", Section: "47", VerseNumber: "47"},
		Score: 0.92,
		Rank:  1,
	}}
}

package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/domain/entity"
	apperrors "monk-ai-api/pkg/errors"
)

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	args := m.Called(ctx, s)
	s.ID = "sid-1"
	return args.Error(0)
}

func (m *mockSessionRepo) GetActive(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error) {
	args := m.Called(ctx, userID, sessionID)
	s, _ := args.Get(0).(*entity.ChatSession)
	return s, args.Error(1)
}

func (m *mockSessionRepo) GetActiveForUpdate(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error) {
	args := m.Called(ctx, userID, sessionID)
	s, _ := args.Get(0).(*entity.ChatSession)
	return s, args.Error(1)
}

func (m *mockSessionRepo) ListActive(ctx context.Context, userID string, limit int) ([]*entity.ChatSession, error) {
	args := m.Called(ctx, userID, limit)
	s, _ := args.Get(0).([]*entity.ChatSession)
	return s, args.Error(1)
}

func (m *mockSessionRepo) Touch(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockSessionRepo) UpdateTitle(ctx context.Context, userID, sessionID, title string) (bool, error) {
	args := m.Called(ctx, userID, sessionID, title)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) Deactivate(ctx context.Context, userID, sessionID string) (bool, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Bool(0), args.Error(1)
}

type mockMessageRepo struct{ mock.Mock }

func (m *mockMessageRepo) Create(ctx context.Context, msg *entity.ChatMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).([]*entity.ChatMessage)
	return s, args.Error(1)
}

func (m *mockMessageRepo) Search(ctx context.Context, userID, query string, limit int) ([]*entity.MessageSearchHit, error) {
	args := m.Called(ctx, userID, query, limit)
	s, _ := args.Get(0).([]*entity.MessageSearchHit)
	return s, args.Error(1)
}

// inlineTx 直接执行回调，记录调用次数
type inlineTx struct{ calls int }

const (
	testSessionID = "0b9c5a0e-6d7f-4e3a-9a51-3c2f1d8e7b64"
	goneSessionID = "7e4d2c1b-0a9f-4b8e-8d7c-6f5e4d3c2b1a"
)

func (t *inlineTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func TestSessionService_AppendMessage(t *testing.T) {
	sessions, messages, tx := &mockSessionRepo{}, &mockMessageRepo{}, &inlineTx{}
	svc := NewSessionService(tx, sessions, messages)

	sessions.On("GetActiveForUpdate", mock.Anything, "u1", testSessionID).Return(&entity.ChatSession{ID: testSessionID, UserID: "u1"}, nil)
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m *entity.ChatMessage) bool {
		return m.SessionID == testSessionID && m.UserID == "u1" && m.Content == "hello"
	})).Return(nil)
	sessions.On("Touch", mock.Anything, testSessionID).Return(nil)

	require.NoError(t, svc.AppendMessage(context.Background(), testSessionID, "u1", entity.NewUserMessage("hello", "beginner")))
	assert.Equal(t, 1, tx.calls)
	sessions.AssertExpectations(t)
	messages.AssertExpectations(t)
}

func TestSessionService_AppendMessageForeignSession(t *testing.T) {
	sessions, messages := &mockSessionRepo{}, &mockMessageRepo{}
	svc := NewSessionService(&inlineTx{}, sessions, messages)

	sessions.On("GetActiveForUpdate", mock.Anything, "u2", testSessionID).Return(nil, nil)

	err := svc.AppendMessage(context.Background(), testSessionID, "u2", entity.NewUserMessage("hello", "beginner"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSessionNotFound))
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSessionService_CreateSession(t *testing.T) {
	sessions := &mockSessionRepo{}
	svc := NewSessionService(&inlineTx{}, sessions, &mockMessageRepo{})

	sessions.On("Create", mock.Anything, mock.MatchedBy(func(s *entity.ChatSession) bool {
		return s.UserID == "u1" && s.Title == "What is karma?" && s.IsActive
	})).Return(nil)

	id, err := svc.CreateSession(context.Background(), "u1", "What is karma?")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", id)
}

func TestSessionService_GetListRenameDelete(t *testing.T) {
	sessions, messages := &mockSessionRepo{}, &mockMessageRepo{}
	svc := NewSessionService(&inlineTx{}, sessions, messages)
	ctx := context.Background()

	sessions.On("ListActive", mock.Anything, "u1", 50).Return([]*entity.ChatSession{{ID: testSessionID}}, nil)
	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	sessions.On("GetActive", mock.Anything, "u1", testSessionID).Return(&entity.ChatSession{ID: testSessionID}, nil)
	sessions.On("GetActive", mock.Anything, "u1", goneSessionID).Return(nil, nil)
	messages.On("ListBySession", mock.Anything, testSessionID).Return([]*entity.ChatMessage{{Content: "hi"}}, nil)
	detail, err := svc.Get(ctx, "u1", testSessionID)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 1)
	_, err = svc.Get(ctx, "u1", goneSessionID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSessionNotFound))

	err = svc.Rename(ctx, "u1", testSessionID, "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	sessions.On("UpdateTitle", mock.Anything, "u1", testSessionID, "Gita notes").Return(true, nil)
	assert.NoError(t, svc.Rename(ctx, "u1", testSessionID, " Gita notes "))

	sessions.On("Deactivate", mock.Anything, "u1", testSessionID).Return(false, nil)
	err = svc.Delete(ctx, "u1", testSessionID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSessionNotFound))
}

func TestSessionService_SearchHistory(t *testing.T) {
	messages := &mockMessageRepo{}
	svc := NewSessionService(&inlineTx{}, &mockSessionRepo{}, messages)

	_, err := svc.SearchHistory(context.Background(), "u1", " ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	messages.On("Search", mock.Anything, "u1", "karma", 10).Return(nil, errors.New("timeout"))
	_, err = svc.SearchHistory(context.Background(), "u1", "karma")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
}

func TestSessionService_MalformedIDIsNotFound(t *testing.T) {
	sessions, messages := &mockSessionRepo{}, &mockMessageRepo{}
	svc := NewSessionService(&inlineTx{}, sessions, messages)
	ctx := context.Background()

	for _, id := range []string{"", "s1", "1 OR 1=1", "0b9c5a0e-6d7f-4e3a-9a51"} {
		_, err := svc.Get(ctx, "u1", id)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeSessionNotFound), id)
		assert.True(t, apperrors.HasCode(svc.Rename(ctx, "u1", id, "title"), apperrors.CodeSessionNotFound), id)
		assert.True(t, apperrors.HasCode(svc.Delete(ctx, "u1", id), apperrors.CodeSessionNotFound), id)
		err = svc.AppendMessage(ctx, id, "u1", entity.NewUserMessage("hello", "beginner"))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeSessionNotFound), id)
	}
	sessions.AssertNotCalled(t, "GetActive", mock.Anything, mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "GetActiveForUpdate", mock.Anything, mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "UpdateTitle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidSessionID(t *testing.T) {
	assert.True(t, ValidSessionID(testSessionID))
	assert.True(t, ValidSessionID(entity.NewChatSession("u1", "").ID))
	assert.False(t, ValidSessionID(""))
	assert.False(t, ValidSessionID("session-new"))
}

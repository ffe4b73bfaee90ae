package callback

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/domain/service"
)

type recordingUsage struct {
	got []service.LLMUsage
}

func (r *recordingUsage) Record(_ context.Context, in service.LLMUsage) error {
	r.got = append(r.got, in)
	return nil
}

func TestChatModelCallback_RecordsUsage(t *testing.T) {
	rec := &recordingUsage{}
	h := newChatModelCallbackHandler(rec)

	ctx := service.WithLLMCall(context.Background(), service.PurposeAnswer, "groq")
	ctx = h.OnStart(ctx, nil, &model.CallbackInput{Config: &model.Config{Model: "llama-3.3-70b-versatile"}})
	h.OnEnd(ctx, nil, &model.CallbackOutput{
		Config:     &model.Config{Model: "llama-3.3-70b-versatile"},
		TokenUsage: &model.TokenUsage{PromptTokens: 120, CompletionTokens: 40},
		Message:    schema.AssistantMessage("ok", nil),
	})

	require.Len(t, rec.got, 1)
	assert.Equal(t, service.PurposeAnswer, rec.got[0].Purpose)
	assert.Equal(t, "groq", rec.got[0].Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", rec.got[0].Model)
	assert.Equal(t, 120, rec.got[0].PromptTokens)
	assert.Equal(t, 40, rec.got[0].CompletionTokens)
}

func TestChatModelCallback_ErrorPathDoesNotRecord(t *testing.T) {
	rec := &recordingUsage{}
	h := newChatModelCallbackHandler(rec)

	ctx := h.OnStart(context.Background(), nil, nil)
	h.OnError(ctx, nil, errors.New("rate limited"))
	assert.Empty(t, rec.got)
}

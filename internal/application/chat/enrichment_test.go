package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "monk-ai-api/pkg/errors"
)

func TestLLMKeywordExplainer(t *testing.T) {
	cm := &fakeChatModel{reply: "karma, dharma , moksha, samsara"}
	lookup := &fakeLookup{defs: map[string]string{
		"what is the meaning of karma in hinduism":  "The law of cause and effect.",
		"what is the meaning of dharma in hinduism": "Righteous duty.",
	}}
	ex, err := NewLLMKeywordExplainer(&fakeFactory{models: map[string]*fakeChatModel{"kw": cm}}, "kw", lookup, 3)
	require.NoError(t, err)

	got, err := ex.Explain(context.Background(), "Karma and dharma lead to moksha.")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Karma":  "The law of cause and effect.",
		"Dharma": "Righteous duty.",
		"Moksha": MeaningNotFound,
	}, got)
	assert.Len(t, lookup.queries, 3)
	require.Len(t, cm.last, 1)
	assert.Contains(t, cm.last[0].Content, `Text: "Karma and dharma lead to moksha."`)
	assert.Contains(t, cm.last[0].Content, "a maximum of 3 key spiritual")
}

func TestLLMKeywordExplainer_LookupErrorFails(t *testing.T) {
	cm := &fakeChatModel{reply: "karma"}
	ex, err := NewLLMKeywordExplainer(&fakeFactory{models: map[string]*fakeChatModel{"kw": cm}}, "kw", &fakeLookup{err: errors.New("403")}, 3)
	require.NoError(t, err)

	_, err = ex.Explain(context.Background(), "text")
	assert.Error(t, err)
}

func TestParseTerms(t *testing.T) {
	assert.Equal(t, []string{"Atman", "Brahman"}, ParseTerms(` Atman, "Brahman".,  `, 3))
	assert.Equal(t, []string{"a", "b"}, ParseTerms("a,b,c", 2))
	assert.Empty(t, ParseTerms("", 3))
}

func TestEnricher_Translate(t *testing.T) {
	ok := NewEnricher(fakeTranslator{out: "नमस्ते"}, NoopKeywordExplainer{}, time.Second)
	assert.Equal(t, "नमस्ते", ok.Translate(context.Background(), "hello"))
	assert.Equal(t, "", ok.Translate(context.Background(), "  "))

	failing := NewEnricher(fakeTranslator{err: errors.New("boom")}, NoopKeywordExplainer{}, time.Second)
	assert.Equal(t, TranslationUnavailable, failing.Translate(context.Background(), "hello"))

	disabled := NewEnricher(NoopTranslator{}, NoopKeywordExplainer{}, 0)
	assert.Equal(t, TranslationUnavailable, disabled.Translate(context.Background(), "hello"))
}

func TestEnricher_Explain(t *testing.T) {
	noop := NewEnricher(NoopTranslator{}, NoopKeywordExplainer{}, 0)
	assert.Equal(t, map[string]string{}, noop.Explain(context.Background(), "text"))

	failing := NewEnricher(NoopTranslator{}, &fakeExplainer{err: errors.New("llm down")}, 0)
	assert.Equal(t, map[string]string{}, failing.Explain(context.Background(), "text"))
}

func TestGenerator(t *testing.T) {
	cm := &fakeChatModel{reply: "  Dharma is duty.  "}
	g := NewGenerator(&fakeFactory{models: map[string]*fakeChatModel{"groq": cm}}, "groq", time.Second)

	out, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Dharma is duty.", out)
}

func TestGenerator_Failures(t *testing.T) {
	cases := map[string]*Generator{
		"missing provider": NewGenerator(&fakeFactory{}, "groq", 0),
		"api error":        NewGenerator(&fakeFactory{models: map[string]*fakeChatModel{"groq": {err: errors.New("429")}}}, "groq", 0),
		"empty content":    NewGenerator(&fakeFactory{models: map[string]*fakeChatModel{"groq": {reply: " "}}}, "groq", 0),
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), nil)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeGenerationFailed))
		})
	}
}


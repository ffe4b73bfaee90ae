package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monk-ai-api/internal/config"
)

func TestEinoFactory_GetCachesAndRejectsUnknown(t *testing.T) {
	f := NewEinoFactory(&config.LLMConfig{
		DefaultProvider: "groq",
		Providers: map[string]config.ProviderConfig{
			"groq": {APIKey: "k", BaseURL: "http://127.0.0.1:1/v1", Model: "llama-3.3-70b-versatile", MaxTokens: 2048, Temperature: 0.3},
		},
	})
	ctx := context.Background()

	m1, err := f.Get(ctx, "")
	require.NoError(t, err)
	m2, err := f.Get(ctx, "groq")
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	_, err = f.Get(ctx, "missing")
	require.Error(t, err)

	assert.Equal(t, "llama-3.3-70b-versatile", f.ProviderModel(""))
}

package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"monk-ai-api/internal/config"
)

func TestGoogleTranslator_Translate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "hi", r.URL.Query().Get("target"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"translations":[{"translatedText":"धर्म &amp; कर्म"}]}}`))
	}))
	defer srv.Close()

	tr, err := NewGoogleTranslator(context.Background(),
		&config.TranslationConfig{APIKey: "test-key"},
		nil, 0,
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)

	got, err := tr.Translate(context.Background(), "dharma & karma")
	require.NoError(t, err)
	assert.Equal(t, "धर्म & कर्म", got)

	got, err = tr.Translate(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGoogleTranslator_RequiresKey(t *testing.T) {
	_, err := NewGoogleTranslator(context.Background(), &config.TranslationConfig{}, nil, 0)
	require.Error(t, err)
}

func TestGoogleTranslator_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota"}}`))
	}))
	defer srv.Close()

	tr, err := NewGoogleTranslator(context.Background(),
		&config.TranslationConfig{APIKey: "k"}, nil, 0, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), "hello")
	require.Error(t, err)
}

func TestSearchDefinitionLookup_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cx-1", r.URL.Query().Get("cx"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("q") == "nothing" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"title":"Dharma","snippet":"  Dharma is the\n cosmic order. "}]}`))
	}))
	defer srv.Close()

	l, err := NewSearchDefinitionLookup(context.Background(),
		&config.KeywordsConfig{SearchAPIKey: "k", SearchEngineID: "cx-1"},
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)

	got, err := l.Lookup(context.Background(), "what is the meaning of dharma in hinduism")
	require.NoError(t, err)
	assert.Equal(t, "Dharma is the cosmic order.", got)

	got, err = l.Lookup(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewLimiter_Unlimited(t *testing.T) {
	l := newLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}
}

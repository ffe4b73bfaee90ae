package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { Init("info", "json") })

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, UserIDKey, "user-1")
	ctx = WithContext(ctx, SessionIDKey, "sess-1")

	Error(ctx, "stage failed", errors.New("boom"), "stage", "generating")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stage failed", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "sess-1", line["session_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "generating", line["stage"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}

func TestFromContext_NoFieldsReturnsDefault(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
}

func TestOutput(t *testing.T) {
	assert.Equal(t, os.Stderr, Output("stderr"))
	assert.Equal(t, os.Stdout, Output("stdout"))
	assert.Equal(t, os.Stdout, Output(""))
}

package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meguminnnnnnnnn/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/config"
	apperrors "monk-ai-api/pkg/errors"
)

const defaultTranscriptionModel = "whisper-large-v3"

var tracer = otel.Tracer("llm")

// WhisperTranscriber 调用 OpenAI 兼容的 /audio/transcriptions 接口（Groq Whisper）
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

var _ chat.Transcriber = (*WhisperTranscriber)(nil)

func NewWhisperTranscriber(cfg *config.TranscriptionConfig) *WhisperTranscriber {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = defaultTranscriptionModel
	}
	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(oc),
		model:  model,
	}
}

// Transcribe 返回纯文本转写结果；静音或无法识别时可能为空串
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Transcribe",
		trace.WithAttributes(
			attribute.String("model", t.model),
			attribute.String("filename", filename),
		))
	defer span.End()

	if audio == nil {
		return "", apperrors.New(apperrors.CodeValidationFailed, "audio is required")
	}
	if filename == "" {
		filename = "audio.wav"
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		span.RecordError(err)
		return "", apperrors.Wrap(err, apperrors.CodeTranscriptionFailed, "transcription failed").
			WithDetail(fmt.Sprintf("model=%s", t.model))
	}
	text := strings.TrimSpace(resp.Text)
	span.SetAttributes(attribute.Int("chars", len(text)))
	return text, nil
}

package chat

import (
	"context"
	"io"
)

// Transcriber 语音转文字
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

package retrieval

import (
	"errors"

	apperrors "monk-ai-api/pkg/errors"
)

var (
	// ErrVectorDisabled 表示向量检索/索引能力未配置（向量库或 Embedder 不可用）。
	ErrVectorDisabled = errors.New("vector retrieval is disabled")
)

func configurationError(msg string) error {
	return apperrors.New(apperrors.CodeConfigInvalid, msg)
}

func indexUnavailable(err error) error {
	return apperrors.Wrap(err, apperrors.CodeIndexUnavailable, "vector index unavailable")
}

// Package chat 编排经文问答：检索、生成、增强与会话持久化
package chat

import (
	"fmt"
	"strings"

	apperrors "monk-ai-api/pkg/errors"
)

// Mode 回答风格
type Mode string

const (
	ModeBeginner Mode = "beginner"
	ModeExpert   Mode = "expert"
)

// ParseMode 解析回答模式，未知取值返回校验错误
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBeginner:
		return ModeBeginner, nil
	case ModeExpert:
		return ModeExpert, nil
	default:
		return "", apperrors.New(apperrors.CodeValidationFailed, fmt.Sprintf("unknown mode %q", s)).
			WithDetail("mode must be one of: beginner, expert")
	}
}

func (m Mode) String() string {
	return string(m)
}

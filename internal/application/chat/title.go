package chat

import (
	"strings"

	"monk-ai-api/internal/domain/entity"
)

const maxTitleRunes = 50

// SessionTitle 由首条用户消息生成会话标题
func SessionTitle(message string) string {
	title := strings.TrimSpace(message)
	if r := []rune(title); len(r) > maxTitleRunes {
		cut := string(r[:maxTitleRunes])
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		title = cut + "..."
	}
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return entity.DefaultSessionTitle
	}
	return title
}

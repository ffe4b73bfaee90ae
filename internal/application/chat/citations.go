package chat

import (
	"strings"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
)

const (
	unknownSource      = "Unknown Source"
	previewRunes       = 100
	maxRecommendations = 3
)

// BuildCitations 从证据生成引用列表，顺序与证据一致
func BuildCitations(evidence []retrieval.Evidence) []entity.Citation {
	out := make([]entity.Citation, 0, len(evidence))
	for _, ev := range evidence {
		book := ev.Meta.BookName
		if book == "" {
			book = unknownSource
		}
		out = append(out, entity.Citation{
			Book:           book,
			Chapter:        ev.Meta.Chapter,
			Section:        ev.Meta.Section,
			Verse:          ev.Meta.VerseNumber,
			ContentPreview: preview(ev.Text, previewRunes),
		})
	}
	return out
}

// Recommendations 返回去重后的书名，按首次出现排序，最多 3 本
func Recommendations(evidence []retrieval.Evidence) []string {
	seen := make(map[string]struct{}, len(evidence))
	out := make([]string, 0, maxRecommendations)
	for _, ev := range evidence {
		book := strings.TrimSpace(ev.Meta.BookName)
		if book == "" {
			continue
		}
		if _, ok := seen[book]; ok {
			continue
		}
		seen[book] = struct{}{}
		out = append(out, book)
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

package chat

import (
	"context"
	"embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"monk-ai-api/internal/application/retrieval"
)

//go:embed templates/*.txt
var templatesFS embed.FS

const unknownBook = "Unknown"

// PromptBuilder 根据证据与模式构造确定性的提示词
type PromptBuilder struct {
	templates map[Mode]einoprompt.ChatTemplate
}

// NewPromptBuilder 加载内嵌模板
func NewPromptBuilder() (*PromptBuilder, error) {
	system, err := readTemplate("templates/system.txt")
	if err != nil {
		return nil, err
	}

	b := &PromptBuilder{templates: make(map[Mode]einoprompt.ChatTemplate, 2)}
	for _, m := range []Mode{ModeBeginner, ModeExpert} {
		user, err := readTemplate(fmt.Sprintf("templates/%s.user.txt", m))
		if err != nil {
			return nil, err
		}
		b.templates[m] = einoprompt.FromMessages(
			schema.FString,
			schema.SystemMessage(system),
			schema.UserMessage(user),
		)
	}
	return b, nil
}

// Messages 返回发给对话模型的 system + user 消息
func (b *PromptBuilder) Messages(ctx context.Context, query string, evidence []retrieval.Evidence, mode Mode) ([]*schema.Message, error) {
	tpl, ok := b.templates[mode]
	if !ok {
		if _, err := ParseMode(string(mode)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("prompt template for mode %s not loaded", mode)
	}

	msgs, err := tpl.Format(ctx, map[string]any{
		"context": FormatContext(evidence),
		"query":   query,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt: %w", err)
	}
	return msgs, nil
}

// Build 返回渲染后的用户提示词
func (b *PromptBuilder) Build(ctx context.Context, query string, evidence []retrieval.Evidence, mode Mode) (string, error) {
	msgs, err := b.Messages(ctx, query, evidence, mode)
	if err != nil {
		return "", err
	}
	return msgs[len(msgs)-1].Content, nil
}

// FormatContext 将证据序列化为提示词中的上下文块
func FormatContext(evidence []retrieval.Evidence) string {
	items := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		book := ev.Meta.BookName
		if book == "" {
			book = unknownBook
		}
		source := strings.TrimRight(fmt.Sprintf("Source: %s - %s %s", book, ev.Meta.Chapter, ev.Meta.Section), " ")
		items = append(items, source+"\nContent: "+ev.Text)
	}
	return strings.Join(items, "\n\n")
}

func readTemplate(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template %s: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

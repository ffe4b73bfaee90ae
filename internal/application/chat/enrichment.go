package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"monk-ai-api/internal/domain/service"
	"monk-ai-api/pkg/logger"
	"monk-ai-api/pkg/metrics"
)

const (
	// TranslationUnavailable 翻译失败时的占位文本
	TranslationUnavailable = "अनुवाद अनुपलब्ध है"
	// MeaningNotFound 未检索到释义时的占位文本
	MeaningNotFound = "Meaning not found."

	defaultMaxTerms     = 3
	definitionQueryForm = "what is the meaning of %s in hinduism"
)

// ErrTranslationDisabled 未配置翻译服务
var ErrTranslationDisabled = errors.New("translation is disabled")

// Translator 将英文回答翻译为目标语言
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// KeywordExplainer 提取并解释回答中的术语，key 为标题化后的术语
type KeywordExplainer interface {
	Explain(ctx context.Context, text string) (map[string]string, error)
}

// DefinitionLookup 外部检索术语释义，未命中返回空串
type DefinitionLookup interface {
	Lookup(ctx context.Context, query string) (string, error)
}

// NoopTranslator 翻译关闭时使用
type NoopTranslator struct{}

func (NoopTranslator) Translate(context.Context, string) (string, error) {
	return "", ErrTranslationDisabled
}

// NoopKeywordExplainer 关键词解释关闭时使用
type NoopKeywordExplainer struct{}

func (NoopKeywordExplainer) Explain(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

// LLMKeywordExplainer 用小模型抽取术语，再逐个检索释义
type LLMKeywordExplainer struct {
	models   ChatModelFactory
	provider string
	lookup   DefinitionLookup
	maxTerms int
	tpl      einoprompt.ChatTemplate
}

func NewLLMKeywordExplainer(models ChatModelFactory, provider string, lookup DefinitionLookup, maxTerms int) (*LLMKeywordExplainer, error) {
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}
	user, err := readTemplate("templates/keywords.user.txt")
	if err != nil {
		return nil, err
	}
	return &LLMKeywordExplainer{
		models:   models,
		provider: provider,
		lookup:   lookup,
		maxTerms: maxTerms,
		tpl:      einoprompt.FromMessages(schema.FString, schema.UserMessage(user)),
	}, nil
}

func (e *LLMKeywordExplainer) Explain(ctx context.Context, text string) (map[string]string, error) {
	msgs, err := e.tpl.Format(ctx, map[string]any{"text": text, "max_terms": e.maxTerms})
	if err != nil {
		return nil, fmt.Errorf("failed to format keyword prompt: %w", err)
	}

	cm, err := e.models.Get(ctx, e.provider)
	if err != nil {
		return nil, err
	}
	resp, err := cm.Generate(service.WithLLMCall(ctx, service.PurposeKeywords, e.provider), msgs)
	if err != nil {
		return nil, fmt.Errorf("keyword extraction failed: %w", err)
	}
	if resp == nil {
		return map[string]string{}, nil
	}

	terms := ParseTerms(resp.Content, e.maxTerms)
	// Caser 有状态，不能跨 goroutine 共享
	title := cases.Title(language.English)
	out := make(map[string]string, len(terms))
	for _, term := range terms {
		def, err := e.lookup.Lookup(ctx, fmt.Sprintf(definitionQueryForm, term))
		if err != nil {
			return nil, fmt.Errorf("definition lookup for %q failed: %w", term, err)
		}
		if strings.TrimSpace(def) == "" {
			def = MeaningNotFound
		}
		out[title.String(term)] = strings.TrimSpace(def)
	}
	return out, nil
}

// ParseTerms 解析逗号分隔的术语列表
func ParseTerms(raw string, limit int) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		term := strings.Trim(strings.TrimSpace(part), `."'`)
		if term == "" {
			continue
		}
		out = append(out, term)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Enricher 尽力而为的回答增强，失败时返回占位值而不是错误
type Enricher struct {
	translator Translator
	explainer  KeywordExplainer
	timeout    time.Duration
}

func NewEnricher(translator Translator, explainer KeywordExplainer, timeout time.Duration) *Enricher {
	return &Enricher{translator: translator, explainer: explainer, timeout: timeout}
}

// Translate 空文本返回空串，失败返回占位文本
func (e *Enricher) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	out, err := e.translator.Translate(ctx, text)
	if err != nil {
		metrics.EnrichmentDegradedTotal.WithLabelValues("translation").Inc()
		if !errors.Is(err, ErrTranslationDisabled) {
			logger.Warn(ctx, "translation degraded", "stage", "enriching", "error", err.Error())
		}
		return TranslationUnavailable
	}
	return out
}

// Explain 失败返回空映射
func (e *Enricher) Explain(ctx context.Context, text string) map[string]string {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	out, err := e.explainer.Explain(ctx, text)
	if err != nil {
		metrics.EnrichmentDegradedTotal.WithLabelValues("keywords").Inc()
		logger.Warn(ctx, "keyword explanation degraded", "stage", "enriching", "error", err.Error())
		return map[string]string{}
	}
	if out == nil {
		out = map[string]string{}
	}
	return out
}

func (e *Enricher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

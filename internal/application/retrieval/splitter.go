package retrieval

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

const (
	DefaultChunkSize    = 700
	DefaultChunkOverlap = 140
)

// defaultSeparators 由粗到细；分隔符保留在前一片段末尾
var defaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " "}

// Splitter 基于 eino 递归分隔符切分器，长度按 rune 计
type Splitter struct {
	chunkSize int
	overlap   int
	inner     document.Transformer
}

// NewSplitter 创建切分器；非法参数回退到默认值
func NewSplitter(ctx context.Context, chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	inner, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   chunkSize,
		OverlapSize: overlap,
		Separators:  defaultSeparators,
		LenFunc:     utf8.RuneCountInString,
		KeepType:    recursive.KeepTypeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, inner: inner}, nil
}

// Split 不超过 chunkSize 的文本原样返回（去首尾空白）；更长的文本交给递归切分，
// 找不到分隔符的超长片段再按 rune 窗口硬切
func (s *Splitter) Split(ctx context.Context, text string) ([]string, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(raw) <= s.chunkSize {
		return []string{raw}, nil
	}

	docs, err := s.inner.Transform(ctx, []*schema.Document{{Content: raw}})
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	out := make([]string, 0, len(docs))
	for _, d := range docs {
		chunk := strings.TrimSpace(d.Content)
		if chunk == "" {
			continue
		}
		out = append(out, s.window(chunk)...)
	}
	return out, nil
}

// window 按 chunkSize 的 rune 窗口切分，相邻窗口重叠 overlap
func (s *Splitter) window(chunk string) []string {
	runes := []rune(chunk)
	if len(runes) <= s.chunkSize {
		return []string{chunk}
	}
	step := s.chunkSize - s.overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+s.chunkSize, len(runes))
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

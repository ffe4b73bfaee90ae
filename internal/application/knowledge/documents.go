// Package knowledge 读取经文数据文件并分批写入向量索引
package knowledge

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/domain/entity"
)

const maxJSONLLine = 4 << 20

// Document 切分前的原始文档
type Document struct {
	Content string
	Meta    entity.PassageMeta
}

type jsonlRecord struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// ReadJSONL 每行一个 {content, metadata}；空行跳过，解析失败带行号报错
func ReadJSONL(r io.Reader) ([]Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	var out []Document
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if strings.TrimSpace(rec.Content) == "" {
			continue
		}
		out = append(out, Document{Content: rec.Content, Meta: metaFromMap(rec.Metadata)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadCSV 读取带表头的 CSV：paragraph 为正文，book_name/chapter/section/verse_number 为元数据
func ReadCSV(r io.Reader) ([]Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["paragraph"]; !ok {
		return nil, fmt.Errorf("csv header has no paragraph column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Document
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		content := field(row, "paragraph")
		if content == "" {
			continue
		}
		out = append(out, Document{
			Content: content,
			Meta: entity.PassageMeta{
				BookName:    field(row, "book_name"),
				Chapter:     field(row, "chapter"),
				Section:     field(row, "section"),
				VerseNumber: field(row, "verse_number"),
			},
		})
	}
	return out, nil
}

// ReadText 整个文件作为一篇文档，来源记为文件名
func ReadText(r io.Reader, sourceFile string) ([]Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(string(b))
	if content == "" {
		return nil, nil
	}
	return []Document{{Content: content, Meta: entity.PassageMeta{SourceFile: sourceFile}}}, nil
}

// ReadFile 按扩展名选择读取方式
func ReadFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return ReadJSONL(f)
	case ".csv":
		return ReadCSV(f)
	case ".txt":
		return ReadText(f, name)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", name)
	}
}

// DataFiles 列出目录下支持的数据文件，按文件名排序
func DataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jsonl", ".csv", ".txt":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Chunk 将文档切成片段并标注 chunk_id/total_chunks，空白片段丢弃
func Chunk(ctx context.Context, docs []Document, splitter *retrieval.Splitter) ([]*entity.Passage, error) {
	var out []*entity.Passage
	for _, doc := range docs {
		chunks, err := splitter.Split(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		for i, c := range chunks {
			if strings.TrimSpace(c) == "" {
				continue
			}
			meta := doc.Meta
			meta.ChunkID = i
			meta.TotalChunks = len(chunks)
			out = append(out, &entity.Passage{Text: c, Meta: meta})
		}
	}
	return out, nil
}

func metaFromMap(m map[string]any) entity.PassageMeta {
	return entity.PassageMeta{
		BookName:    stringValue(m["book_name"]),
		Chapter:     stringValue(m["chapter"]),
		Section:     stringValue(m["section"]),
		VerseNumber: stringValue(m["verse_number"]),
		SourceFile:  stringValue(m["source_file"]),
	}
}

// stringValue 元数据里的章节号等可能是数字
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

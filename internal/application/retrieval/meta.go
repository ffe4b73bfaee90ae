package retrieval

import (
	"encoding/json"
	"strings"

	"monk-ai-api/internal/domain/entity"
)

const passageMetaPrefix = "@@meta:"

// EncodePassageText 将元数据以首行前缀的形式写入 text_content，标量列之外的字段（来源文件、分块序号）靠它回读。
func EncodePassageText(meta entity.PassageMeta, text string) string {
	b, _ := json.Marshal(meta)
	var sb strings.Builder
	sb.Grow(len(passageMetaPrefix) + len(b) + 1 + len(text))
	sb.WriteString(passageMetaPrefix)
	sb.Write(b)
	sb.WriteByte('\n')
	sb.WriteString(text)
	return sb.String()
}

// DecodePassageText 解析 EncodePassageText 的输出；没有前缀时原样返回正文。
func DecodePassageText(textContent string) (entity.PassageMeta, string, bool) {
	raw := strings.TrimSpace(textContent)
	if !strings.HasPrefix(raw, passageMetaPrefix) {
		return entity.PassageMeta{}, raw, false
	}
	line, body, ok := strings.Cut(strings.TrimPrefix(raw, passageMetaPrefix), "\n")
	if !ok {
		return entity.PassageMeta{}, raw, false
	}
	var meta entity.PassageMeta
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &meta); err != nil {
		return entity.PassageMeta{}, strings.TrimSpace(body), false
	}
	return meta, strings.TrimSpace(body), true
}

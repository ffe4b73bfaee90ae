package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"monk-ai-api/internal/domain/entity"
)

func TestDecodePassageText(t *testing.T) {
	meta := entity.PassageMeta{BookName: "Bhagavad Gita", Chapter: "2", SourceFile: "gita.csv", ChunkID: 1, TotalChunks: 3}

	got, text, ok := DecodePassageText(EncodePassageText(meta, "karmaṇy evādhikāras te"))
	assert.True(t, ok)
	assert.Equal(t, meta, got)
	assert.Equal(t, "karmaṇy evādhikāras te", text)

	_, text, ok = DecodePassageText("  plain passage ")
	assert.False(t, ok)
	assert.Equal(t, "plain passage", text)
}

// Package entity 定义领域实体
package entity

// PassageMeta 经文片段元数据
type PassageMeta struct {
	BookName    string `json:"book_name,omitempty"`
	Chapter     string `json:"chapter,omitempty"`
	Section     string `json:"section,omitempty"`
	VerseNumber string `json:"verse_number,omitempty"`
	SourceFile  string `json:"source_file,omitempty"`
	ChunkID     int    `json:"chunk_id"`
	TotalChunks int    `json:"total_chunks"`
}

// Passage 知识库中的一段经文，入库后不可变
type Passage struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	Meta      PassageMeta `json:"metadata"`
	Embedding []float32   `json:"-"`
}

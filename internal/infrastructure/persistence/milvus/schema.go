// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// DefaultCollection 经文片段集合
	DefaultCollection = "hindu_scriptures"

	fieldID          = "id"
	fieldVector      = "vector"
	fieldBookName    = "book_name"
	fieldChapter     = "chapter"
	fieldSection     = "section"
	fieldVerseNumber = "verse_number"
	fieldTextContent = "text_content"
)

var outputFields = []string{fieldID, fieldBookName, fieldChapter, fieldSection, fieldVerseNumber, fieldTextContent}

// ScripturesSchema 经文片段 Collection Schema
func ScripturesSchema(collection string, dim int) *entity.Schema {
	varchar := func(name string, maxLen int) *entity.Field {
		return &entity.Field{
			Name:     name,
			DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{
				"max_length": strconv.Itoa(maxLen),
			},
		}
	}

	id := varchar(fieldID, 64)
	id.PrimaryKey = true

	return &entity.Schema{
		CollectionName: collection,
		Description:    "Hindu scripture passages for semantic search",
		Fields: []*entity.Field{
			id,
			{
				Name:     fieldVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dim),
				},
			},
			varchar(fieldBookName, 256),
			varchar(fieldChapter, 128),
			varchar(fieldSection, 128),
			varchar(fieldVerseNumber, 64),
			varchar(fieldTextContent, 65535),
		},
	}
}

// PassageRow 写入 Milvus 的一行
type PassageRow struct {
	ID          string
	Vector      []float32
	BookName    string
	Chapter     string
	Section     string
	VerseNumber string
	TextContent string
}

// SearchResult 检索结果，Score 为 Milvus 原始分数
type SearchResult struct {
	ID          string
	Score       float32
	BookName    string
	Chapter     string
	Section     string
	VerseNumber string
	TextContent string
}

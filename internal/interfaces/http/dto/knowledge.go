package dto

// KnowledgeStatsResponse 知识库统计
type KnowledgeStatsResponse struct {
	CollectionName string `json:"collection_name"`
	TotalDocuments int64  `json:"total_documents"`
	EmbeddingModel string `json:"embedding_model"`
	RerankerModel  string `json:"reranker_model"`
}

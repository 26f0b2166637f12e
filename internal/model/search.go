package model

// SegmentHit 是向量召回阶段返回的单条命中：一个分段及其与查询向量的余弦距离。
type SegmentHit struct {
	SegmentID     string
	DocumentID    string
	StartPosition int
	EndPosition   int
	Distance      float64
}

// DocumentHit 是全文检索阶段返回的单条命中。
// Preview 是 Elasticsearch 高亮器生成的整篇带 <mark> 标记的预览。
type DocumentHit struct {
	DocumentID string
	Preview    string
	Score      float64
}

// SearchResultDTO 定义了返回给前端的语义检索结果结构，按文档聚合。
type SearchResultDTO struct {
	FileID      string   `json:"fileId"`
	Filename    string   `json:"filename"`
	ContentType string   `json:"contentType"`
	Categories  []string `json:"categories"`
	Snippets    []string `json:"snippets"`
	Rank        float64  `json:"rank"`
}

// FullTextResultDTO 定义了返回给前端的全文检索结果结构。
type FullTextResultDTO struct {
	FileID         string   `json:"fileId"`
	Filename       string   `json:"filename"`
	ContentType    string   `json:"contentType"`
	Categories     []string `json:"categories"`
	ContentPreview string   `json:"contentPreview"`
	Rank           float64  `json:"rank"`
}

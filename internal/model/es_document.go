package model

// EsSegment 定义了存储在 Elasticsearch 分段索引中的文档结构，
// 用于 knn 向量召回。偏移量与数据库中的 Segment 保持一致。
type EsSegment struct {
	SegmentID     string    `json:"segment_id"` // 唯一标识，例如 documentID_segmentID
	DocumentID    string    `json:"document_id"`
	StartPosition int       `json:"start_position"`
	EndPosition   int       `json:"end_position"`
	Vector        []float32 `json:"vector"`
	ModelVersion  string    `json:"model_version"`
	UserID        uint      `json:"user_id"`
}

// EsDocument 定义了存储在 Elasticsearch 文档索引中的结构，
// 用于 BM25 全文检索与整篇高亮预览。
type EsDocument struct {
	DocumentID  string   `json:"document_id"`
	Filename    string   `json:"filename"`
	ContentType string   `json:"content_type"`
	Content     string   `json:"content"`
	Categories  []string `json:"categories"`
	UserID      uint     `json:"user_id"`
}

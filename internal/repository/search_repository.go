package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"docuseek-go/internal/model"
	"docuseek-go/pkg/log"
)

// SearchRepository 接口定义了基于 Elasticsearch 的检索操作。
type SearchRepository interface {
	// SearchSegments 对分段索引执行 k-NN 向量检索，返回候选分段及其余弦距离。
	SearchSegments(ctx context.Context, vector []float32, k int, userID uint, isAdmin bool) ([]model.SegmentHit, error)
	// SearchDocuments 对文档索引执行全文检索，返回命中文档及高亮预览。
	SearchDocuments(ctx context.Context, query, category string, userID uint, isAdmin bool, limit int) ([]model.DocumentHit, error)
}

// esSearchRepository 是 SearchRepository 接口的 Elasticsearch 实现。
type esSearchRepository struct {
	esClient      *elasticsearch.Client
	documentIndex string
	segmentIndex  string
}

// NewSearchRepository 创建一个新的 SearchRepository 实例。
func NewSearchRepository(esClient *elasticsearch.Client, documentIndex, segmentIndex string) SearchRepository {
	return &esSearchRepository{
		esClient:      esClient,
		documentIndex: documentIndex,
		segmentIndex:  segmentIndex,
	}
}

// visibilityFilter 构造可见性过滤条件：普通用户只能看到自己的数据，管理员不过滤。
func visibilityFilter(userID uint, isAdmin bool) []map[string]interface{} {
	if isAdmin {
		return nil
	}
	return []map[string]interface{}{
		{"term": map[string]interface{}{"user_id": userID}},
	}
}

// SearchSegments 对分段索引执行 k-NN 检索。
// Elasticsearch 对 cosine 相似度返回 (1 + cosine) / 2 的归一化分数，
// 这里换算回余弦距离 distance = 2 - 2 * score，便于上层按距离阈值过滤。
func (r *esSearchRepository) SearchSegments(ctx context.Context, vector []float32, k int, userID uint, isAdmin bool) ([]model.SegmentHit, error) {
	knn := map[string]interface{}{
		"field":          "vector",
		"query_vector":   vector,
		"k":              k,
		"num_candidates": k,
	}
	if filter := visibilityFilter(userID, isAdmin); filter != nil {
		knn["filter"] = map[string]interface{}{
			"bool": map[string]interface{}{"must": filter},
		}
	}

	esQuery := map[string]interface{}{
		"knn":     knn,
		"size":    k,
		"_source": []string{"segment_id", "document_id", "start_position", "end_position"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.segmentIndex),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchRepository] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsSegment `json:"_source"`
				Score  float64         `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]model.SegmentHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hits = append(hits, model.SegmentHit{
			SegmentID:     h.Source.SegmentID,
			DocumentID:    h.Source.DocumentID,
			StartPosition: h.Source.StartPosition,
			EndPosition:   h.Source.EndPosition,
			Distance:      2 - 2*h.Score,
		})
	}
	return hits, nil
}

// SearchDocuments 对文档索引执行全文检索。
// match 查询使用 and 操作符要求所有词项命中；高亮设置 number_of_fragments 为 0，
// 使 Elasticsearch 返回整段内容并以 <mark> 标记每处命中。
func (r *esSearchRepository) SearchDocuments(ctx context.Context, query, category string, userID uint, isAdmin bool, limit int) ([]model.DocumentHit, error) {
	must := []map[string]interface{}{
		{
			"match": map[string]interface{}{
				"content": map[string]interface{}{
					"query":    query,
					"operator": "and",
				},
			},
		},
	}
	if category != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"categories": category},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if filter := visibilityFilter(userID, isAdmin); filter != nil {
		boolQuery["filter"] = filter
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"size":  limit,
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"content": map[string]interface{}{
					"number_of_fragments": 0,
					"pre_tags":            []string{"<mark>"},
					"post_tags":           []string{"</mark>"},
				},
			},
		},
		"_source": []string{"document_id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.documentIndex),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchRepository] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source    model.EsDocument    `json:"_source"`
				Score     float64             `json:"_score"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]model.DocumentHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		preview := ""
		if fragments, ok := h.Highlight["content"]; ok && len(fragments) > 0 {
			preview = fragments[0]
		}
		hits = append(hits, model.DocumentHit{
			DocumentID: h.Source.DocumentID,
			Preview:    preview,
			Score:      h.Score,
		})
	}
	return hits, nil
}

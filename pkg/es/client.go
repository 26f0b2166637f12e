// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"docuseek-go/internal/config"
	"docuseek-go/internal/model"
	"docuseek-go/pkg/log"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端并确保两个索引存在：
// 文档索引用于全文检索，分段索引用于向量检索。
func InitES(esCfg config.ElasticsearchConfig, vectorDims int) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client

	if err := createIndexIfNotExists(esCfg.DocumentIndex, documentMapping()); err != nil {
		return err
	}
	return createIndexIfNotExists(esCfg.SegmentIndex, segmentMapping(vectorDims))
}

// documentMapping 定义文档索引的结构，content 字段用于 match 查询和高亮。
func documentMapping() string {
	return `{
		"mappings": {
			"properties": {
				"document_id": { "type": "keyword" },
				"filename": {
					"type": "text",
					"fields": { "keyword": { "type": "keyword" } }
				},
				"content_type": { "type": "keyword" },
				"content": { "type": "text" },
				"categories": { "type": "keyword" },
				"user_id": { "type": "long" }
			}
		}
	}`
}

// segmentMapping 定义分段索引的结构，向量维度与 embedding 模型保持一致。
func segmentMapping(dims int) string {
	return fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"segment_id": { "type": "keyword" },
				"document_id": { "type": "keyword" },
				"start_position": { "type": "integer" },
				"end_position": { "type": "integer" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"model_version": { "type": "keyword" },
				"user_id": { "type": "long" }
			}
		}
	}`, dims)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName, mapping string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexDocument 将文档全文索引到 Elasticsearch。
func IndexDocument(ctx context.Context, indexName string, doc model.EsDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.DocumentID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}

	return nil
}

// IndexSegment 将单个分段向量索引到 Elasticsearch。
func IndexSegment(ctx context.Context, indexName string, seg model.EsSegment) error {
	segBytes, err := json.Marshal(seg)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: seg.SegmentID,
		Body:       bytes.NewReader(segBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引分段到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index segment")
	}

	return nil
}

// DeleteByDocumentID 删除索引中属于指定文档的全部条目。
func DeleteByDocumentID(ctx context.Context, indexName, documentID string) error {
	query := fmt.Sprintf(`{"query": {"term": {"document_id": %q}}}`, documentID)

	res, err := ESClient.DeleteByQuery(
		[]string{indexName},
		strings.NewReader(query),
		ESClient.DeleteByQuery.WithContext(ctx),
		ESClient.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("按文档 ID 删除 Elasticsearch 条目出错: %s", res.String())
		return errors.New("failed to delete by document id")
	}

	return nil
}

package service

import (
	"context"
	"fmt"
	"sort"

	"docuseek-go/internal/model"
	"docuseek-go/internal/repository"
	"docuseek-go/internal/search"
	"docuseek-go/pkg/embedding"
	"docuseek-go/pkg/log"
)

// SearchService 接口定义了面向用户的检索操作。
type SearchService interface {
	// ContextualSearch 执行语义检索：向量召回候选分段，按布尔过滤表达式
	// 筛选文档，并为每处命中生成带 <mark> 高亮的上下文片段。
	ContextualSearch(ctx context.Context, query, filterExpr string, contextRange int, user *model.User) ([]model.SearchResultDTO, error)
	// FullTextSearch 执行关键词全文检索，可按分类过滤。
	FullTextSearch(ctx context.Context, query, category string, user *model.User) ([]model.FullTextResultDTO, error)
}

// SearchOptions 控制检索行为的可调参数。
type SearchOptions struct {
	DistanceThreshold   float64 // 余弦距离阈值，超过该值的分段被丢弃
	MaxResults          int     // 过滤后保留的原始分段命中数上限
	DefaultContextRange int     // 未指定时的上下文窗口半径（字符数）
}

// searchService 是 SearchService 接口的实现。
type searchService struct {
	embeddingClient embedding.Client
	searchRepo      repository.SearchRepository
	docRepo         repository.DocumentRepository
	opts            SearchOptions
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, searchRepo repository.SearchRepository, docRepo repository.DocumentRepository, opts SearchOptions) SearchService {
	return &searchService{
		embeddingClient: embeddingClient,
		searchRepo:      searchRepo,
		docRepo:         docRepo,
		opts:            opts,
	}
}

// docAggregate 聚合单个文档命中的全部分段。
type docAggregate struct {
	hits []model.SegmentHit
}

// ContextualSearch 实现语义检索的完整流程。
func (s *searchService) ContextualSearch(ctx context.Context, query, filterExpr string, contextRange int, user *model.User) ([]model.SearchResultDTO, error) {
	log.Infof("[SearchService] 开始语义检索, query: '%s', filter: '%s', user: %s", query, filterExpr, user.Username)

	if contextRange <= 0 {
		contextRange = s.opts.DefaultContextRange
	}

	// 1. 解析布尔过滤表达式（空表达式表示不过滤）
	filter := search.ParseFilter(filterExpr)

	// 2. 向量化查询
	log.Info("[SearchService] 步骤1: 开始向量化查询")
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	log.Infof("[SearchService] 步骤1: 向量化查询成功, 向量维度: %d", len(queryVector))

	// 3. 向量召回候选分段。
	// 内容过滤发生在召回之后，这里按结果上限放大召回量以保证过滤后仍有足够候选。
	recallK := s.opts.MaxResults * 30
	log.Infof("[SearchService] 步骤2: 开始向量召回, k: %d", recallK)
	segmentHits, err := s.searchRepo.SearchSegments(ctx, queryVector, recallK, user.ID, user.IsAdmin())
	if err != nil {
		log.Errorf("[SearchService] 向量召回失败: %v", err)
		return nil, fmt.Errorf("segment recall failed: %w", err)
	}
	log.Infof("[SearchService] 步骤2: 向量召回完成, 候选分段数: %d", len(segmentHits))

	// 4. 按距离阈值筛掉弱相关分段
	candidates := make([]model.SegmentHit, 0, len(segmentHits))
	for _, hit := range segmentHits {
		if hit.Distance >= s.opts.DistanceThreshold {
			continue
		}
		candidates = append(candidates, hit)
	}
	if len(candidates) == 0 {
		log.Info("[SearchService] 阈值过滤后无候选分段")
		return []model.SearchResultDTO{}, nil
	}

	// 5. 批量加载候选文档
	seen := make(map[string]bool)
	documentIDs := make([]string, 0, len(candidates))
	for _, hit := range candidates {
		if !seen[hit.DocumentID] {
			seen[hit.DocumentID] = true
			documentIDs = append(documentIDs, hit.DocumentID)
		}
	}
	log.Infof("[SearchService] 步骤3: 批量加载候选文档, 数量: %d", len(documentIDs))
	docs, err := s.docRepo.FindBatchByIDs(documentIDs)
	if err != nil {
		log.Errorf("[SearchService] 批量加载文档失败: %v", err)
		return nil, fmt.Errorf("failed to load candidate documents: %w", err)
	}
	docByID := make(map[string]*model.Document, len(docs))
	for i := range docs {
		docByID[docs[i].ID] = &docs[i]
	}

	// 6. 应用内容过滤表达式，按距离升序取前 MaxResults 条原始命中
	log.Info("[SearchService] 步骤4: 应用过滤表达式并截取原始命中")
	matched := make([]model.SegmentHit, 0, len(candidates))
	for _, hit := range candidates {
		doc, ok := docByID[hit.DocumentID]
		if !ok {
			// 索引与数据库短暂不一致时跳过孤儿分段
			log.Warnf("[SearchService] 分段命中的文档在数据库中不存在: %s", hit.DocumentID)
			continue
		}
		if filter != nil && !filter.Matches(doc.Content) {
			continue
		}
		matched = append(matched, hit)
	}
	sort.SliceStable(matched, func(a, b int) bool {
		return matched[a].Distance < matched[b].Distance
	})
	if len(matched) > s.opts.MaxResults {
		matched = matched[:s.opts.MaxResults]
	}

	// 7. 原始命中按文档聚合，生成上下文片段与聚合 rank
	byDocument := make(map[string]*docAggregate)
	for _, hit := range matched {
		agg, ok := byDocument[hit.DocumentID]
		if !ok {
			agg = &docAggregate{}
			byDocument[hit.DocumentID] = agg
		}
		agg.hits = append(agg.hits, hit)
	}
	results := make([]model.SearchResultDTO, 0, len(byDocument))
	for id, agg := range byDocument {
		doc := docByID[id]
		// 片段按正文出现顺序排列
		sort.Slice(agg.hits, func(a, b int) bool {
			return agg.hits[a].StartPosition < agg.hits[b].StartPosition
		})

		snippets := make([]string, 0, len(agg.hits))
		var distanceSum float64
		for _, hit := range agg.hits {
			snippets = append(snippets, search.ContextWindow(doc.Content, hit.StartPosition, hit.EndPosition, contextRange))
			distanceSum += hit.Distance
		}

		results = append(results, model.SearchResultDTO{
			FileID:      doc.ID,
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
			Categories:  doc.Categories,
			Snippets:    snippets,
			// 距离越小相关性越强，rank 取 1 - 平均距离
			Rank: 1 - distanceSum/float64(len(agg.hits)),
		})
	}

	// 8. 按 rank 降序排序，相同 rank 按文档 ID 升序保证结果稳定
	sort.Slice(results, func(a, b int) bool {
		if results[a].Rank != results[b].Rank {
			return results[a].Rank > results[b].Rank
		}
		return results[a].FileID < results[b].FileID
	})

	log.Infof("[SearchService] 语义检索完成, 返回文档数: %d", len(results))
	return results, nil
}

// FullTextSearch 实现关键词全文检索。
func (s *searchService) FullTextSearch(ctx context.Context, query, category string, user *model.User) ([]model.FullTextResultDTO, error) {
	log.Infof("[SearchService] 开始全文检索, query: '%s', category: '%s', user: %s", query, category, user.Username)

	hits, err := s.searchRepo.SearchDocuments(ctx, query, category, user.ID, user.IsAdmin(), s.opts.MaxResults)
	if err != nil {
		log.Errorf("[SearchService] 全文检索失败: %v", err)
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}
	if len(hits) == 0 {
		return []model.FullTextResultDTO{}, nil
	}

	documentIDs := make([]string, 0, len(hits))
	for _, h := range hits {
		documentIDs = append(documentIDs, h.DocumentID)
	}
	docs, err := s.docRepo.FindBatchByIDs(documentIDs)
	if err != nil {
		log.Errorf("[SearchService] 批量加载文档失败: %v", err)
		return nil, fmt.Errorf("failed to load matched documents: %w", err)
	}
	docByID := make(map[string]*model.Document, len(docs))
	for i := range docs {
		docByID[docs[i].ID] = &docs[i]
	}

	results := make([]model.FullTextResultDTO, 0, len(hits))
	for _, h := range hits {
		doc, ok := docByID[h.DocumentID]
		if !ok {
			// 索引与数据库短暂不一致时跳过孤儿条目
			log.Warnf("[SearchService] 索引命中的文档在数据库中不存在: %s", h.DocumentID)
			continue
		}
		results = append(results, model.FullTextResultDTO{
			FileID:         doc.ID,
			Filename:       doc.Filename,
			ContentType:    doc.ContentType,
			Categories:     doc.Categories,
			ContentPreview: h.Preview,
			Rank:           h.Score,
		})
	}

	log.Infof("[SearchService] 全文检索完成, 返回文档数: %d", len(results))
	return results, nil
}

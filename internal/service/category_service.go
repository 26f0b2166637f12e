package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docuseek-go/internal/config"
	"docuseek-go/pkg/embedding"
	"docuseek-go/pkg/log"
)

// 参与分类的正文长度上限（字符数），超出部分对主题判断贡献有限。
const categoryContentLimit = 8192

// CategoryService 接口定义了文档自动分类的业务操作。
type CategoryService interface {
	// Classify 根据正文与预置分类标签的语义相似度，返回置信度最高的标签。
	Classify(ctx context.Context, content string) ([]string, error)
	GetAllCategories() []string
}

// categoryService 是 CategoryService 接口的实现。
// 标签向量在首次分类时计算一次并缓存。
type categoryService struct {
	embeddingClient embedding.Client
	cfg             config.CategoryConfig

	mu        sync.Mutex
	labelVecs [][]float32
}

// NewCategoryService 创建一个新的 CategoryService 实例。
func NewCategoryService(embeddingClient embedding.Client, cfg config.CategoryConfig) CategoryService {
	return &categoryService{
		embeddingClient: embeddingClient,
		cfg:             cfg,
	}
}

// GetAllCategories 返回全部可用的分类标签。
func (s *categoryService) GetAllCategories() []string {
	labels := make([]string, len(s.cfg.Labels))
	copy(labels, s.cfg.Labels)
	return labels
}

// labelVectors 惰性计算并缓存全部标签的向量。
// 只缓存成功结果，嵌入服务暂时不可用时下次分类会重试。
func (s *categoryService) labelVectors(ctx context.Context) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labelVecs != nil {
		return s.labelVecs, nil
	}
	vecs, err := s.embeddingClient.CreateEmbeddings(ctx, s.cfg.Labels)
	if err != nil {
		return nil, err
	}
	s.labelVecs = vecs
	return s.labelVecs, nil
}

// Classify 对文档正文进行语义分类。
func (s *categoryService) Classify(ctx context.Context, content string) ([]string, error) {
	if content == "" || len(s.cfg.Labels) == 0 {
		return []string{}, nil
	}

	runes := []rune(content)
	if len(runes) > categoryContentLimit {
		runes = runes[:categoryContentLimit]
	}

	labelVecs, err := s.labelVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to embed category labels: %w", err)
	}

	contentVec, err := s.embeddingClient.CreateEmbedding(ctx, string(runes))
	if err != nil {
		return nil, fmt.Errorf("failed to embed document content: %w", err)
	}

	type labelScore struct {
		label string
		score float64
	}
	scores := make([]labelScore, 0, len(labelVecs))
	for i, vec := range labelVecs {
		scores = append(scores, labelScore{
			label: s.cfg.Labels[i],
			score: cosineSimilarity(contentVec, vec),
		})
	}

	sort.Slice(scores, func(a, b int) bool { return scores[a].score > scores[b].score })

	result := make([]string, 0, s.cfg.MaxLabels)
	for _, ls := range scores {
		if len(result) >= s.cfg.MaxLabels {
			break
		}
		if ls.score < s.cfg.Threshold {
			break
		}
		result = append(result, ls.label)
	}

	log.Infof("[CategoryService] 分类完成, 命中标签: %v", result)
	return result, nil
}

// cosineSimilarity 计算两个向量的余弦相似度，长度不一致或零向量时返回 0。
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

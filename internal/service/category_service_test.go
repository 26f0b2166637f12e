package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuseek-go/internal/config"
)

// mappingEmbeddingClient 按文本返回预设向量，未知文本返回零向量。
type mappingEmbeddingClient struct {
	vectors map[string][]float32
}

func (m *mappingEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0}, nil
}

func (m *mappingEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.CreateEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestClassify_PicksLabelsAboveThreshold(t *testing.T) {
	client := &mappingEmbeddingClient{vectors: map[string][]float32{
		"technology": {1, 0},
		"cooking":    {0, 1},
		"travel":     {0.7, 0.7},
		"all about computers and software": {1, 0},
	}}
	svc := NewCategoryService(client, config.CategoryConfig{
		Labels:    []string{"technology", "cooking", "travel"},
		Threshold: 0.8,
		MaxLabels: 3,
	})

	labels, err := svc.Classify(context.Background(), "all about computers and software")
	require.NoError(t, err)
	// technology 相似度 1.0，travel 约 0.707（低于阈值），cooking 为 0
	assert.Equal(t, []string{"technology"}, labels)
}

func TestClassify_CapsLabelCount(t *testing.T) {
	client := &mappingEmbeddingClient{vectors: map[string][]float32{
		"a":    {1, 0},
		"b":    {1, 0},
		"c":    {1, 0},
		"text": {1, 0},
	}}
	svc := NewCategoryService(client, config.CategoryConfig{
		Labels:    []string{"a", "b", "c"},
		Threshold: 0.5,
		MaxLabels: 2,
	})

	labels, err := svc.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, labels, 2)
}

// flakyEmbeddingClient 前 failures 次批量调用返回错误，之后委托给内部 client。
type flakyEmbeddingClient struct {
	inner    *mappingEmbeddingClient
	failures int
	calls    int
}

func (f *flakyEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f.inner.CreateEmbedding(ctx, text)
}

func (f *flakyEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("embedding api unavailable")
	}
	return f.inner.CreateEmbeddings(ctx, texts)
}

func TestClassify_RetriesLabelEmbeddingAfterFailure(t *testing.T) {
	client := &flakyEmbeddingClient{
		inner: &mappingEmbeddingClient{vectors: map[string][]float32{
			"technology": {1, 0},
			"text":       {1, 0},
		}},
		failures: 1,
	}
	svc := NewCategoryService(client, config.CategoryConfig{
		Labels:    []string{"technology"},
		Threshold: 0.5,
		MaxLabels: 3,
	})

	// 首次分类时标签向量化失败
	_, err := svc.Classify(context.Background(), "text")
	require.Error(t, err)

	// 失败不应被缓存，下一次分类重试并成功
	labels, err := svc.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []string{"technology"}, labels)
	assert.Equal(t, 2, client.calls)
}

func TestClassify_EmptyContent(t *testing.T) {
	svc := NewCategoryService(&mappingEmbeddingClient{}, config.CategoryConfig{
		Labels:    []string{"a"},
		Threshold: 0.5,
		MaxLabels: 3,
	})

	labels, err := svc.Classify(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestGetAllCategories_ReturnsCopy(t *testing.T) {
	cfg := config.CategoryConfig{Labels: []string{"a", "b"}}
	svc := NewCategoryService(&mappingEmbeddingClient{}, cfg)

	labels := svc.GetAllCategories()
	require.Equal(t, []string{"a", "b"}, labels)
	labels[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, svc.GetAllCategories())
}

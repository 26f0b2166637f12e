package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuseek-go/internal/model"
)

type fakeEmbeddingClient struct {
	vector []float32
	err    error
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return vectors, nil
}

type fakeSearchRepo struct {
	segmentHits  []model.SegmentHit
	documentHits []model.DocumentHit
	err          error

	lastK       int
	lastIsAdmin bool
	lastUserID  uint
}

func (f *fakeSearchRepo) SearchSegments(ctx context.Context, vector []float32, k int, userID uint, isAdmin bool) ([]model.SegmentHit, error) {
	f.lastK = k
	f.lastUserID = userID
	f.lastIsAdmin = isAdmin
	if f.err != nil {
		return nil, f.err
	}
	return f.segmentHits, nil
}

func (f *fakeSearchRepo) SearchDocuments(ctx context.Context, query, category string, userID uint, isAdmin bool, limit int) ([]model.DocumentHit, error) {
	f.lastUserID = userID
	f.lastIsAdmin = isAdmin
	if f.err != nil {
		return nil, f.err
	}
	return f.documentHits, nil
}

type fakeDocRepo struct {
	docs map[string]model.Document
	err  error
}

func (f *fakeDocRepo) Create(doc *model.Document) error          { return nil }
func (f *fakeDocRepo) FindByID(id string) (*model.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &d, nil
}
func (f *fakeDocRepo) FindByUserID(userID uint, offset, limit int) ([]model.Document, int64, error) {
	return nil, 0, nil
}
func (f *fakeDocRepo) FindAllWithPagination(offset, limit int) ([]model.Document, int64, error) {
	return nil, 0, nil
}
func (f *fakeDocRepo) FindBatchByIDs(ids []string) ([]model.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Document
	for _, id := range ids {
		if d, ok := f.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDocRepo) UpdateExtraction(id, content string, metadata model.MetadataMap, categories model.StringList, status int) error {
	return nil
}
func (f *fakeDocRepo) UpdateStatus(id string, status int) error { return nil }
func (f *fakeDocRepo) Delete(id string) error                   { return nil }

func testOptions() SearchOptions {
	return SearchOptions{
		DistanceThreshold:   0.5,
		MaxResults:          10,
		DefaultContextRange: 100,
	}
}

func testUser() *model.User {
	return &model.User{ID: 1, Username: "alice", Role: "USER"}
}

func TestContextualSearch_AggregatesRankPerDocument(t *testing.T) {
	searchRepo := &fakeSearchRepo{
		segmentHits: []model.SegmentHit{
			{SegmentID: "a_1", DocumentID: "a", StartPosition: 0, EndPosition: 10, Distance: 0.1},
			{SegmentID: "a_2", DocumentID: "a", StartPosition: 10, EndPosition: 20, Distance: 0.3},
			{SegmentID: "b_1", DocumentID: "b", StartPosition: 0, EndPosition: 10, Distance: 0.4},
		},
	}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{
		"a": {ID: "a", Filename: "a.txt", Content: "first line\nsecond line\n"},
		"b": {ID: "b", Filename: "b.txt", Content: "other text\n"},
	}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, testOptions())

	results, err := svc.ContextualSearch(context.Background(), "query", "", 100, testUser())
	require.NoError(t, err)
	require.Len(t, results, 2)

	// 文档 a：1 - (0.1+0.3)/2 = 0.8；文档 b：1 - 0.4 = 0.6
	assert.Equal(t, "a", results[0].FileID)
	assert.InDelta(t, 0.8, results[0].Rank, 1e-9)
	assert.Len(t, results[0].Snippets, 2)
	assert.Equal(t, "b", results[1].FileID)
	assert.InDelta(t, 0.6, results[1].Rank, 1e-9)
}

func TestContextualSearch_TieBreaksByDocumentID(t *testing.T) {
	searchRepo := &fakeSearchRepo{
		segmentHits: []model.SegmentHit{
			{SegmentID: "z_1", DocumentID: "z", StartPosition: 0, EndPosition: 5, Distance: 0.2},
			{SegmentID: "a_1", DocumentID: "a", StartPosition: 0, EndPosition: 5, Distance: 0.2},
		},
	}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{
		"z": {ID: "z", Content: "zzzz\n"},
		"a": {ID: "a", Content: "aaaa\n"},
	}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, testOptions())

	results, err := svc.ContextualSearch(context.Background(), "query", "", 0, testUser())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].FileID)
	assert.Equal(t, "z", results[1].FileID)
}

func TestContextualSearch_DropsHitsBeyondThreshold(t *testing.T) {
	searchRepo := &fakeSearchRepo{
		segmentHits: []model.SegmentHit{
			{SegmentID: "a_1", DocumentID: "a", StartPosition: 0, EndPosition: 5, Distance: 0.9},
		},
	}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{
		"a": {ID: "a", Content: "aaaa\n"},
	}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, testOptions())

	results, err := svc.ContextualSearch(context.Background(), "query", "", 0, testUser())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestContextualSearch_AppliesContentFilter(t *testing.T) {
	searchRepo := &fakeSearchRepo{
		segmentHits: []model.SegmentHit{
			{SegmentID: "a_1", DocumentID: "a", StartPosition: 0, EndPosition: 15, Distance: 0.1},
			{SegmentID: "b_1", DocumentID: "b", StartPosition: 0, EndPosition: 15, Distance: 0.1},
		},
	}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{
		"a": {ID: "a", Content: "cats and dogs\n"},
		"b": {ID: "b", Content: "fish and fowl\n"},
	}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, testOptions())

	results, err := svc.ContextualSearch(context.Background(), "query", "cats AND dogs", 0, testUser())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].FileID)
}

func TestContextualSearch_CapsRawMatchesByDistance(t *testing.T) {
	searchRepo := &fakeSearchRepo{
		segmentHits: []model.SegmentHit{
			{SegmentID: "a_1", DocumentID: "a", StartPosition: 0, EndPosition: 10, Distance: 0.1},
			{SegmentID: "a_3", DocumentID: "a", StartPosition: 22, EndPosition: 33, Distance: 0.4},
			{SegmentID: "a_2", DocumentID: "a", StartPosition: 11, EndPosition: 22, Distance: 0.2},
		},
	}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{
		"a": {ID: "a", Filename: "a.txt", Content: "first line\nsecond one\nthird line\n"},
	}}
	opts := testOptions()
	opts.MaxResults = 2
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, opts)

	results, err := svc.ContextualSearch(context.Background(), "query", "", 0, testUser())
	require.NoError(t, err)
	require.Len(t, results, 1)

	// 原始命中按距离升序截断到 2 条，距离 0.4 的分段不参与聚合
	require.Len(t, results[0].Snippets, 2)
	assert.InDelta(t, 1-(0.1+0.2)/2, results[0].Rank, 1e-9)
}

func TestContextualSearch_OverFetchesForFiltering(t *testing.T) {
	searchRepo := &fakeSearchRepo{}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, testOptions())

	_, err := svc.ContextualSearch(context.Background(), "query", "", 0, testUser())
	require.NoError(t, err)
	assert.Equal(t, 300, searchRepo.lastK)
}

func TestContextualSearch_PassesAdminVisibility(t *testing.T) {
	searchRepo := &fakeSearchRepo{}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, testOptions())

	admin := &model.User{ID: 2, Username: "root", Role: "ADMIN"}
	_, err := svc.ContextualSearch(context.Background(), "query", "", 0, admin)
	require.NoError(t, err)
	assert.True(t, searchRepo.lastIsAdmin)
	assert.Equal(t, uint(2), searchRepo.lastUserID)

	_, err = svc.ContextualSearch(context.Background(), "query", "", 0, testUser())
	require.NoError(t, err)
	assert.False(t, searchRepo.lastIsAdmin)
}

func TestContextualSearch_EmbeddingErrorPropagates(t *testing.T) {
	svc := NewSearchService(&fakeEmbeddingClient{err: errors.New("api down")}, &fakeSearchRepo{}, &fakeDocRepo{}, testOptions())

	results, err := svc.ContextualSearch(context.Background(), "query", "", 0, testUser())
	require.Error(t, err)
	assert.Nil(t, results)
}

func TestContextualSearch_RecallErrorPropagates(t *testing.T) {
	searchRepo := &fakeSearchRepo{err: errors.New("es unavailable")}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, &fakeDocRepo{}, testOptions())

	results, err := svc.ContextualSearch(context.Background(), "query", "", 0, testUser())
	require.Error(t, err)
	assert.Nil(t, results)
}

func TestFullTextSearch_MapsHitsToDocuments(t *testing.T) {
	searchRepo := &fakeSearchRepo{
		documentHits: []model.DocumentHit{
			{DocumentID: "a", Preview: "some <mark>match</mark> here", Score: 2.5},
			{DocumentID: "orphan", Preview: "gone", Score: 1.0},
		},
	}
	docRepo := &fakeDocRepo{docs: map[string]model.Document{
		"a": {ID: "a", Filename: "a.txt", ContentType: "text/plain"},
	}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, docRepo, testOptions())

	results, err := svc.FullTextSearch(context.Background(), "match", "", testUser())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].FileID)
	assert.Equal(t, "some <mark>match</mark> here", results[0].ContentPreview)
	assert.InDelta(t, 2.5, results[0].Rank, 1e-9)
}

func TestFullTextSearch_ErrorPropagates(t *testing.T) {
	searchRepo := &fakeSearchRepo{err: errors.New("es unavailable")}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, searchRepo, &fakeDocRepo{}, testOptions())

	results, err := svc.FullTextSearch(context.Background(), "match", "", testUser())
	require.Error(t, err)
	assert.Nil(t, results)
}

package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 为每段文本返回一个确定性的向量。
type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (f *fakeEmbedder) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

func TestSegment_EmptyDocument(t *testing.T) {
	s := NewSegmenter(&fakeEmbedder{})
	segments, err := s.Segment(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSegment_BlankLinesOnly(t *testing.T) {
	emb := &fakeEmbedder{}
	s := NewSegmenter(emb)
	segments, err := s.Segment(context.Background(), "\n\n\n")
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.Empty(t, emb.calls, "空文档不应触发向量化调用")
}

func TestSegment_OffsetsSkipBlankLines(t *testing.T) {
	emb := &fakeEmbedder{}
	s := NewSegmenter(emb)

	// "Cats are mammals." 为 17 个字符，加终止符后区间为 [0,18)，
	// 空行占据偏移 18，下一行从 19 开始
	text := "Cats are mammals.\n\nDogs are mammals too."
	segments, err := s.Segment(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, 0, segments[0].StartPosition)
	assert.Equal(t, 18, segments[0].EndPosition)
	assert.Equal(t, 19, segments[1].StartPosition)
	assert.Equal(t, 41, segments[1].EndPosition)
}

func TestSegment_IntervalsAreContiguous(t *testing.T) {
	s := NewSegmenter(&fakeEmbedder{})

	text := "one\ntwo\nthree\n"
	segments, err := s.Segment(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	for i := 1; i < len(segments); i++ {
		assert.Equal(t, segments[i-1].EndPosition, segments[i].StartPosition,
			"相邻分段的区间应首尾相接")
	}
}

func TestSegment_RuneOffsetsForMultibyteText(t *testing.T) {
	s := NewSegmenter(&fakeEmbedder{})

	text := "猫是哺乳动物\n犬也是哺乳动物"
	segments, err := s.Segment(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, 0, segments[0].StartPosition)
	assert.Equal(t, 7, segments[0].EndPosition)
	assert.Equal(t, 7, segments[1].StartPosition)
	assert.Equal(t, 15, segments[1].EndPosition)
}

func TestSegment_SingleBatchEmbeddingCall(t *testing.T) {
	emb := &fakeEmbedder{}
	s := NewSegmenter(emb)

	_, err := s.Segment(context.Background(), "one\ntwo\nthree")
	require.NoError(t, err)
	require.Len(t, emb.calls, 1, "全部行应在一次批量调用中向量化")
	assert.Equal(t, []string{"one", "two", "three"}, emb.calls[0])
}

func TestSegment_EmbeddingErrorPropagates(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("api unavailable")}
	s := NewSegmenter(emb)

	segments, err := s.Segment(context.Background(), "some text")
	require.Error(t, err)
	assert.Nil(t, segments)
}

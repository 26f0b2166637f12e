// Package index 实现了文档正文的分段与向量化。
package index

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"docuseek-go/internal/model"
)

// Embedder 是分段器对向量化能力的最小依赖。
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Segmenter 把提取后的文档正文切分为按字符偏移寻址的行分段。
type Segmenter struct {
	embedder Embedder
}

// NewSegmenter 创建一个新的 Segmenter 实例。
func NewSegmenter(embedder Embedder) *Segmenter {
	return &Segmenter{embedder: embedder}
}

// Segment 将正文按行切分并批量向量化，返回的分段保持原始行序。
//
// 游标以字符（rune）为单位从 0 递增。空行只消费一个终止符字符，不产生
// 分段；非空行产生区间 [cursor, cursor+len(line)+1)，终止符计入区间
// 尾部，因此相邻分段的区间首尾相接，不留空隙。一个文档的全部非空行
// 在一次批量调用中完成向量化。
func (s *Segmenter) Segment(ctx context.Context, documentText string) ([]model.Segment, error) {
	if documentText == "" {
		return nil, nil
	}

	type span struct {
		start int
		end   int
	}

	var spans []span
	var texts []string
	cursor := 0
	for _, line := range strings.Split(documentText, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if line == "" {
			cursor++ // 仅终止符
			continue
		}
		spans = append(spans, span{start: cursor, end: cursor + lineLen + 1})
		texts = append(texts, line)
		cursor += lineLen + 1
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("批量向量化失败: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("向量数量与分段数不一致: %d != %d", len(vectors), len(texts))
	}

	segments := make([]model.Segment, len(spans))
	for i, sp := range spans {
		segments[i] = model.Segment{
			Embedding:     vectors[i],
			StartPosition: sp.start,
			EndPosition:   sp.end,
		}
	}
	return segments, nil
}

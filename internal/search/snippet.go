package search

import (
	"strings"
	"unicode"
)

// ContextWindow 围绕一个匹配区间生成带 <mark> 高亮的上下文片段。
//
// start/end 是文档内容中的字符（rune）偏移，半开区间，end 含行终止符。
// 窗口从匹配区间向左右各扩展 contextRange 个字符，再延伸到最近的词
// 边界，避免截断单词；越界时贴住文档首尾。匹配区间尾部的行终止符在
// 高亮前被裁剪，保证 <mark> 不会包住换行。
func ContextWindow(content string, start, end, contextRange int) string {
	runes := []rune(content)
	n := len(runes)

	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	// 末行没有终止符时，存储的 end 会超出内容 1 个字符
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}

	left := start - contextRange
	if left <= 0 {
		left = 0
	} else {
		for left > 0 && !isWordBoundary(runes[left-1]) {
			left--
		}
	}

	right := end + contextRange
	if right >= n {
		right = n
	} else {
		for right < n && !isWordBoundary(runes[right]) {
			right++
		}
	}

	matched := strings.TrimRight(string(runes[start:end]), "\n")
	trimmed := (end - start) - len([]rune(matched))

	var b strings.Builder
	b.WriteString(string(runes[left:start]))
	b.WriteString("<mark>")
	b.WriteString(matched)
	b.WriteString("</mark>")
	// 被裁剪的终止符回到窗口尾部，右侧上下文保持完整
	b.WriteString(string(runes[end-trimmed : right]))
	return b.String()
}

func isWordBoundary(r rune) bool {
	return unicode.IsSpace(r)
}

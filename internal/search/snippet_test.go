package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextWindow_FullDocumentWhenRangeCoversAll(t *testing.T) {
	content := "Cats are mammals.\n"
	got := ContextWindow(content, 0, 18, 100)
	assert.Equal(t, "<mark>Cats are mammals.</mark>\n", got)
}

func TestContextWindow_TrimsNewlineBeforeHighlight(t *testing.T) {
	content := "first line\nsecond line\n"
	// 区间包含行终止符，但 <mark> 不应包住换行；
	// 右侧窗口延伸到下一行的词边界
	got := ContextWindow(content, 0, 11, 0)
	assert.Equal(t, "<mark>first line</mark>\nsecond", got)
}

func TestContextWindow_ExtendsToWordBoundary(t *testing.T) {
	content := "alpha beta gamma delta epsilon\n"
	// 匹配 "gamma"（偏移 11..16），半径 2 落在 beta/delta 词中，
	// 窗口应延伸到完整单词
	got := ContextWindow(content, 11, 16, 2)
	assert.Equal(t, "beta <mark>gamma</mark> delta", got)
}

func TestContextWindow_ClampsAtDocumentEdges(t *testing.T) {
	content := "tiny\n"
	got := ContextWindow(content, 0, 5, 1000)
	assert.Equal(t, "<mark>tiny</mark>\n", got)
}

func TestContextWindow_LastLineWithoutTerminator(t *testing.T) {
	// 末行无终止符时，存储的 end 比内容长 1，应被收敛
	content := "first\nlast"
	got := ContextWindow(content, 6, 11, 0)
	assert.Equal(t, "<mark>last</mark>", got)
}

func TestContextWindow_RuneOffsets(t *testing.T) {
	content := "猫是哺乳动物\n犬也是哺乳动物\n"
	// 第二行从字符偏移 7 开始，长度 7，终止符计入区间
	got := ContextWindow(content, 7, 15, 0)
	assert.Equal(t, "<mark>犬也是哺乳动物</mark>\n", got)
}

func TestContextWindow_ZeroRangeKeepsOnlyMatch(t *testing.T) {
	content := "one two three\n"
	got := ContextWindow(content, 4, 7, 0)
	assert.True(t, strings.HasPrefix(got, "<mark>"))
	assert.Equal(t, "<mark>two</mark>", got)
}

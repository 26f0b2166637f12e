package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter_Empty(t *testing.T) {
	assert.Nil(t, ParseFilter(""))
	assert.Nil(t, ParseFilter("   "))
	assert.Nil(t, ParseFilter("\t\n"))
}

func TestParseFilter_SingleLiteral(t *testing.T) {
	expr := ParseFilter("  cats  ")
	require.NotNil(t, expr)

	lit, ok := expr.(Literal)
	require.True(t, ok)
	assert.Equal(t, "cats", lit.Text)
}

func TestParseFilter_LiteralMatchIsCaseInsensitive(t *testing.T) {
	expr := ParseFilter("Cats")
	require.NotNil(t, expr)

	assert.True(t, expr.Matches("I like CATS a lot"))
	assert.True(t, expr.Matches("cats"))
	assert.False(t, expr.Matches("dogs only"))
}

func TestParseFilter_And(t *testing.T) {
	expr := ParseFilter("cats AND dogs")
	require.NotNil(t, expr)

	op, ok := expr.(BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpAnd, op.Kind)
	assert.Equal(t, Literal{Text: "cats"}, op.Left)
	assert.Equal(t, Literal{Text: "dogs"}, op.Right)

	assert.True(t, expr.Matches("cats and dogs live here"))
	assert.False(t, expr.Matches("cats live here"))
	assert.False(t, expr.Matches("dogs live here"))
}

func TestParseFilter_SymbolAliases(t *testing.T) {
	and := ParseFilter("cats && dogs")
	require.IsType(t, BinaryOp{}, and)
	assert.Equal(t, OpAnd, and.(BinaryOp).Kind)

	or := ParseFilter("cats || dogs")
	require.IsType(t, BinaryOp{}, or)
	assert.Equal(t, OpOr, or.(BinaryOp).Kind)
}

func TestParseFilter_RightAssociativeChain(t *testing.T) {
	// 平坦扫描下操作符右结合：cats AND (dogs OR fish)
	expr := ParseFilter("cats AND dogs OR fish")
	require.NotNil(t, expr)

	root, ok := expr.(BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpAnd, root.Kind)
	assert.Equal(t, Literal{Text: "cats"}, root.Left)

	right, ok := root.Right.(BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpOr, right.Kind)
	assert.Equal(t, Literal{Text: "dogs"}, right.Left)
	assert.Equal(t, Literal{Text: "fish"}, right.Right)

	assert.True(t, expr.Matches("cats and fish"))
	assert.True(t, expr.Matches("cats and dogs"))
	assert.False(t, expr.Matches("dogs and fish"))
}

func TestParseFilter_DanglingOperator(t *testing.T) {
	// 右操作数缺失时退化为左侧字面量
	expr := ParseFilter("cats AND ")
	require.NotNil(t, expr)

	lit, ok := expr.(Literal)
	require.True(t, ok)
	assert.Equal(t, "cats", lit.Text)
}

func TestParseFilter_OperatorsAreCaseSensitive(t *testing.T) {
	// 小写 and 不是操作符，整体作为字面量
	expr := ParseFilter("cats and dogs")
	require.NotNil(t, expr)

	lit, ok := expr.(Literal)
	require.True(t, ok)
	assert.Equal(t, "cats and dogs", lit.Text)
}

// Package search 实现了检索核心的纯算法部分：
// 过滤表达式解析与上下文窗口高亮。
package search

import "strings"

// Expression 是过滤表达式树上的一个节点。
// 树在每次查询时构建一次，使用后即丢弃，不可变。
type Expression interface {
	// Matches 判断给定文档内容是否满足该表达式。
	Matches(content string) bool
}

// Literal 是叶子节点：文档内容必须包含该子串（大小写不敏感）。
type Literal struct {
	Text string
}

// Matches 实现 Expression 接口。
func (l Literal) Matches(content string) bool {
	return strings.Contains(strings.ToLower(content), strings.ToLower(l.Text))
}

// OpKind 标识二元操作符的种类。
type OpKind int

const (
	OpAnd OpKind = iota
	OpOr
)

// BinaryOp 是内部节点：按 Kind 组合左右子树的结果。
type BinaryOp struct {
	Kind  OpKind
	Left  Expression
	Right Expression
}

// Matches 实现 Expression 接口。
func (b BinaryOp) Matches(content string) bool {
	if b.Kind == OpAnd {
		return b.Left.Matches(content) && b.Right.Matches(content)
	}
	return b.Left.Matches(content) || b.Right.Matches(content)
}

// 操作符别名，按声明顺序决定同一结束位置上的优先匹配。
var operatorAliases = []struct {
	token string
	kind  OpKind
}{
	{"AND", OpAnd},
	{"OR", OpOr},
	{"&&", OpAnd},
	{"||", OpOr},
}

// ParseFilter 将自由文本过滤表达式解析为谓词树。
// 空或全空白的输入返回 nil（无过滤）。
//
// 扫描按前缀长度递增进行：任一操作符别名最先结束处即为切分点，
// 切分点左侧整体作为单个 Literal，右侧递归解析。左操作数不会被
// 再次扫描，因此操作符在平坦的从左到右扫描下呈右结合；这是既定
// 行为，不要在这里引入优先级表。
func ParseFilter(expression string) Expression {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil
	}

	for end := 1; end <= len(expression); end++ {
		prefix := expression[:end]
		for _, op := range operatorAliases {
			if !strings.HasSuffix(prefix, op.token) {
				continue
			}
			left := strings.TrimSpace(expression[:end-len(op.token)])
			right := ParseFilter(expression[end:])
			if right == nil {
				// 悬空操作符：退化为左侧字面量
				if left == "" {
					return nil
				}
				return Literal{Text: left}
			}
			return BinaryOp{Kind: op.kind, Left: Literal{Text: left}, Right: right}
		}
	}

	return Literal{Text: trimmed}
}

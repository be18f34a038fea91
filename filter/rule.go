package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// RuleFilter 是 CEL 表达式驱动的业务规则过滤器。
// 表达式返回 true 表示该物品被过滤，例如：
//
//	label.recall_source == "popular" && item.score < 1.0
//
// 规则在装配阶段编译，非法表达式直接让装配失败；
// 运行期求值出错则放行（fail open）。
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译一条过滤规则。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{rule: rule}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

// Expr 返回规则表达式文本。
func (f *RuleFilter) Expr() string {
	return f.rule.Expr()
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	match, err := f.rule.Eval(item, rctx)
	if err != nil {
		return false, nil
	}
	return match, nil
}

var _ Filter = (*RuleFilter)(nil)

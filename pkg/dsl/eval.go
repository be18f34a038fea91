package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("user", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译好的 CEL 布尔规则，用于运营侧配置的过滤表达式。
// 表达式编译一次，之后可被并发 Eval。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7
//   - 标签：label.recall_source == "popular"
//   - 逻辑：label.recall_source == "user_cf" && item.score < 0.05
//   - 用户：user.id == "blocked_user"
//
// 注意：CEL 访问不存在的 key 会报错，检查存在性请用 label.key != null。
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译一条规则表达式。表达式非法时返回错误，调用方应在装配阶段失败。
func Compile(expr string) (*Rule, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env error: %v", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %v", err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本（用于日志/错误提示）。
func (r *Rule) Expr() string { return r.expr }

// Eval 对一个候选 item 执行规则，返回布尔结果。
func (r *Rule) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// label 提供顶层访问（label.recall_source 直接取 Value）。
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	user := map[string]any{}
	if rctx != nil {
		user["id"] = rctx.UserID
		user["scene"] = rctx.Scene
	}

	return map[string]any{
		"item": map[string]any{
			"id":    item.ID,
			"score": item.Score,
			"meta":  item.Meta,
		},
		"label": labels,
		"user":  user,
	}
}

// Package dsl 提供基于 CEL (Common Expression Language) 的属性过滤表达式，
// 用于在 EC 开始前从数据集的全部属性中挑出初始工作集。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/ecool/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("attr", cel.DynType),
		cel.Variable("total", cel.IntType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// AttributeFilter 是编译好的属性过滤表达式，可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - attr.name：属性名（string）
//   - attr.index：属性在数据集中的原始位置，从 0 开始（int）
//   - total：数据集属性总数（int）
//
// 示例：
//   - `attr.name.startsWith("rs")` → 只保留 SNP
//   - `!attr.name.matches("^PC[0-9]+$")` → 去掉主成分协变量
//   - `attr.index < total / 2` → 前一半属性
type AttributeFilter struct {
	expr string
	prg  cel.Program
}

// NewAttributeFilter 编译表达式。空表达式表示全部保留。
// 编译失败或结果类型不是 bool 返回 CONFIGURATION 错误。
func NewAttributeFilter(expr string) (*AttributeFilter, error) {
	f := &AttributeFilter{expr: expr}
	if expr == "" {
		return f, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, filterError("cel env", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, filterError("compile error", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, filterError(fmt.Sprintf("expression must return boolean, got %s", out), nil)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, filterError("program error", err)
	}
	f.prg = prg
	return f, nil
}

// Expr 返回原始表达式
func (f *AttributeFilter) Expr() string {
	return f.expr
}

// Match 判断单个属性是否保留
func (f *AttributeFilter) Match(name string, index, total int) (bool, error) {
	if f.prg == nil {
		return true, nil
	}
	out, _, err := f.prg.Eval(map[string]any{
		"attr": map[string]any{
			"name":  name,
			"index": int64(index),
		},
		"total": int64(total),
	})
	if err != nil {
		return false, fmt.Errorf("eval error on %s: %w", name, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Apply 按原始顺序返回通过过滤的属性名。
func (f *AttributeFilter) Apply(names []string) ([]string, error) {
	if f.prg == nil {
		return names, nil
	}
	out := make([]string, 0, len(names))
	for i, name := range names {
		ok, err := f.Match(name, i, len(names))
		if err != nil {
			return nil, filterError("apply", err)
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func filterError(msg string, err error) error {
	return core.WrapDomainError(core.ModuleDataset, core.ErrorCodeConfiguration,
		"attribute filter: "+msg, err)
}

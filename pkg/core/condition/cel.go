// Package condition 为condition步骤提供受限的表达式求值（CEL）
package condition

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// ErrEvaluation 表达式编译或求值失败
var ErrEvaluation = errors.New("CEL condition error")

const defaultCostLimit uint64 = 1000

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CEL保留字不能作为变量名
var reserved = map[string]struct{}{
	"true": {}, "false": {}, "null": {}, "in": {}, "as": {}, "break": {}, "const": {},
	"continue": {}, "else": {}, "for": {}, "function": {}, "if": {}, "import": {},
	"let": {}, "loop": {}, "package": {}, "namespace": {}, "return": {}, "var": {},
	"void": {}, "while": {},
}

// Evaluator CEL条件求值器
// 表达式只能访问传入的数据，没有副作用，求值成本受costLimit限制
type Evaluator struct {
	costLimit uint64
}

// Option 求值器选项
type Option func(*Evaluator)

// WithCostLimit 设置单次求值的成本上限
func WithCostLimit(limit uint64) Option {
	return func(e *Evaluator) {
		e.costLimit = limit
	}
}

// NewEvaluator 创建求值器
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{costLimit: defaultCostLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate 对data求值布尔表达式；data的顶层键作为变量
// 不是合法标识符的键被忽略，可以通过其它键（如steps）间接访问
func (e *Evaluator) Evaluate(ctx context.Context, expression string, data map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	vars := make(map[string]any, len(data))
	names := make([]string, 0, len(data))
	for k, v := range data {
		if !identPattern.MatchString(k) {
			continue
		}
		if _, ok := reserved[k]; ok {
			continue
		}
		vars[k] = v
		names = append(names, k)
	}
	sort.Strings(names)

	envOpts := make([]cel.EnvOption, 0, len(names))
	for _, name := range names {
		envOpts = append(envOpts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(envOpts...)
	if err != nil {
		return false, fmt.Errorf("%w: 创建环境失败: %v", ErrEvaluation, err)
	}

	ast, iss := env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return false, fmt.Errorf("%w: 编译失败: %v", ErrEvaluation, iss.Err())
	}
	outType := ast.OutputType()
	if !outType.IsExactType(types.BoolType) && !outType.IsExactType(types.DynType) {
		return false, fmt.Errorf("%w: 表达式结果必须为bool，实际为%s", ErrEvaluation, outType)
	}

	prg, err := env.Program(ast,
		cel.CostLimit(e.costLimit),
		cel.InterruptCheckFrequency(100),
	)
	if err != nil {
		return false, fmt.Errorf("%w: 构建程序失败: %v", ErrEvaluation, err)
	}

	out, _, err := prg.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("%w: 求值失败: %v", ErrEvaluation, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: 表达式结果必须为bool，实际为%v", ErrEvaluation, out.Type())
	}
	return result, nil
}

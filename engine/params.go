package engine

import (
	"runtime"

	"github.com/rushteam/ecool/dataset"
)

// DefaultNumTrees 是主效应随机森林的默认树数
const DefaultNumTrees = 1000

// ClampThreads 把线程数限制在 [1, 可用处理器数]，越界时取处理器数。
func ClampThreads(n int) int {
	max := runtime.NumCPU()
	if n < 1 || n > max {
		return max
	}
	return n
}

// MainEffectParams 是主效应（随机森林）引擎的调用参数。
type MainEffectParams struct {
	NumTrees int
	TreeType dataset.TreeType
	Threads  int
}

// NewMainEffectParams 由数据集特征推导树类型并规范化线程数。
func NewMainEffectParams(numTrees int, traits dataset.Traits, threads int) MainEffectParams {
	if numTrees <= 0 {
		numTrees = DefaultNumTrees
	}
	return MainEffectParams{
		NumTrees: numTrees,
		TreeType: traits.TreeType(),
		Threads:  ClampThreads(threads),
	}
}

// ToMap 转为 RPC/命令行使用的参数表
func (p MainEffectParams) ToMap() map[string]any {
	return map[string]any{
		"num_trees":  p.NumTrees,
		"tree_type":  int(p.TreeType),
		"regression": p.TreeType.Regression(),
		"threads":    p.Threads,
	}
}

// InteractionParams 是交互效应（Relief-F）引擎的调用参数。
type InteractionParams struct {
	Variant     dataset.InteractionVariant
	IterRemoveN int
	Threads     int
	Continuous  bool // 连续表型时使用 RRelief-F
}

// NewInteractionParams 计算引擎自身的移除节奏并选择变体。
// 百分比节奏在构造时按初始属性数换算为个数，与 EC 主循环的逐轮重算不同。
func NewInteractionParams(analysis dataset.AnalysisType, traits dataset.Traits,
	iterRemoveN int, iterRemovePercent float64, initialAttributes, threads int) InteractionParams {
	n := iterRemoveN
	if iterRemovePercent > 0 {
		n = int(iterRemovePercent / 100.0 * float64(initialAttributes))
	}
	if n < 0 {
		n = 0
	}
	return InteractionParams{
		Variant:     dataset.SelectInteractionVariant(analysis, n),
		IterRemoveN: n,
		Threads:     ClampThreads(threads),
		Continuous:  traits.ContinuousOutcome,
	}
}

// ToMap 转为 RPC/命令行使用的参数表
func (p InteractionParams) ToMap() map[string]any {
	return map[string]any{
		"variant":       string(p.Variant),
		"iter_remove_n": p.IterRemoveN,
		"threads":       p.Threads,
		"continuous":    p.Continuous,
	}
}

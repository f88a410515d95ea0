// Package ecool 是 Evaporative Cooling（EC）特征选择工具包。
//
// 设计要点：
// - Engine-first: 打分逻辑都在 core.ScoringEngine 之后（RPC 服务、外部命令或分片组合），控制器只负责编排
// - 状态单一归属: 工作集、分数与淘汰记录只归 cooling.Controller 所有，循环严格串行
// - 配置驱动: config 包加载 YAML/JSON，按注册表构建引擎（见 config/builders）
package ecool

import (
	"context"

	"github.com/rushteam/ecool/cooling"
	"github.com/rushteam/ecool/core"
	"github.com/rushteam/ecool/dataset"
)

// 轻量 facade：便于用户直接 import "ecool" 使用核心抽象。
type (
	ScoredAttribute = core.ScoredAttribute
	RankedScoreList = core.RankedScoreList
	ScoringEngine   = core.ScoringEngine
	WorkingSet      = core.WorkingSet
	Mode            = cooling.Mode
	Config          = cooling.Config
	Option          = cooling.Option
	Result          = cooling.Result
)

const (
	ModeBoth        = cooling.ModeBoth
	ModeMainEffect  = cooling.ModeMainEffect
	ModeInteraction = cooling.ModeInteraction
)

// Run 对 attributes 执行一次完整的 EC，返回最终结果。
//
//	res, err := ecool.Run(ctx, ecool.Config{Mode: ecool.ModeBoth, TargetAttributes: 10,
//		Removal: cooling.RemovalSchedule{Count: 1}}, names,
//		cooling.WithMainEffectEngine(rj), cooling.WithInteractionEngine(rf))
func Run(ctx context.Context, cfg Config, attributes []string, opts ...Option) (*Result, error) {
	ctrl, err := cooling.New(cfg, dataset.NewWorkingSet(attributes), opts...)
	if err != nil {
		return nil, err
	}
	return ctrl.Run(ctx)
}

package config

import (
	"github.com/rushteam/ecool/core"
	"github.com/rushteam/ecool/engine"
	"github.com/rushteam/ecool/pkg/conv"
)

// Engines 是按模式构建出的引擎对；模式不需要的引擎为 nil。
type Engines struct {
	MainEffect  core.ScoringEngine
	Interaction core.ScoringEngine

	MainEffectParams  engine.MainEffectParams
	InteractionParams engine.InteractionParams
}

// BuildEngines 按模式构建所需引擎。
// 引擎参数由数据集特征与 EngineConfig 推导，作为 "params" 传给构建器；
// EngineConfig.Config 中显式写出的 "params" 项优先。
// initialAttributes 用于把交互引擎的百分比移除节奏换算为个数。
func (c *Config) BuildEngines(initialAttributes int) (*Engines, error) {
	mode, err := c.Mode()
	if err != nil {
		return nil, err
	}
	analysis, err := c.Analysis()
	if err != nil {
		return nil, err
	}

	out := &Engines{}
	if mode.UsesMainEffect() {
		ec := c.Engines.MainEffect
		out.MainEffectParams = engine.NewMainEffectParams(ec.NumTrees, c.Dataset.Traits, ec.Threads)
		out.MainEffect, err = buildWithParams(ec, engine.KindMainEffect, out.MainEffectParams.ToMap())
		if err != nil {
			return nil, err
		}
	}
	if mode.UsesInteraction() {
		ec := c.Engines.Interaction
		out.InteractionParams = engine.NewInteractionParams(analysis, c.Dataset.Traits,
			ec.IterRemoveN, ec.IterRemovePercent, initialAttributes, ec.Threads)
		out.Interaction, err = buildWithParams(ec, engine.KindInteraction, out.InteractionParams.ToMap())
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func buildWithParams(ec EngineConfig, kind string, derived map[string]any) (core.ScoringEngine, error) {
	if err := ValidateEngineConfig(ec); err != nil {
		return nil, err
	}
	explicit := conv.ConfigGet[map[string]any](ec.Config, "params", nil)
	cfg := conv.MergeMaps(ec.Config, map[string]any{"params": conv.MergeMaps(derived, explicit)})
	name := ec.Name
	if name == "" {
		name = kind
	}
	return BuildEngine(ec.Type, name, kind, cfg)
}

package cooling

import (
	"fmt"

	"github.com/rushteam/ecool/core"
)

// DefaultTemperature 是自由能公式中的温度 T。当前每轮固定为 1.0。
const DefaultTemperature = 1.0

// Align 把主效应与交互效应两份列表按属性名对齐。
//
// 两个引擎相互独立、输出顺序任意，因此必须显式按名字排序后再逐项配对；
// 数量不同或排序后同位置名字不同都返回 CONSISTENCY 错误，绝不截断或补齐。
// 输入列表不会被修改。
func Align(mainEffect, interaction core.RankedScoreList) (core.RankedScoreList, core.RankedScoreList, error) {
	if len(mainEffect) != len(interaction) {
		return nil, nil, core.NewDomainError(core.ModuleCooling, core.ErrorCodeConsistency,
			fmt.Sprintf("cooling: score lists are unequal: main effect %d vs interaction %d",
				len(mainEffect), len(interaction)))
	}
	me := mainEffect.Clone()
	ie := interaction.Clone()
	me.SortByName()
	ie.SortByName()
	for i := range me {
		if me[i].Name != ie[i].Name {
			return nil, nil, core.NewDomainError(core.ModuleCooling, core.ErrorCodeConsistency,
				fmt.Sprintf("cooling: score lists disagree at position %d: main effect %q vs interaction %q",
					i, me[i].Name, ie[i].Name))
		}
	}
	return me, ie, nil
}

// FreeEnergy 按模式计算每个属性的自由能分数。
//
//	BOTH:              F(a) = E(a) + T * S(a)   （E = 交互效应，S = 主效应，T = 温度）
//	MAIN_EFFECT_ONLY:  F(a) = S(a)
//	INTERACTION_ONLY:  F(a) = E(a)
//
// BOTH 模式下先经过 Align，输出按名字升序；单引擎模式保持该引擎的输出顺序。
func FreeEnergy(mode Mode, mainEffect, interaction core.RankedScoreList, temperature float64) (core.RankedScoreList, error) {
	switch mode {
	case ModeBoth:
		me, ie, err := Align(mainEffect, interaction)
		if err != nil {
			return nil, err
		}
		fused := make(core.RankedScoreList, 0, len(me))
		for i := range me {
			fused = append(fused, core.ScoredAttribute{
				Score: ie[i].Score + temperature*me[i].Score,
				Name:  me[i].Name,
			})
		}
		return fused, nil
	case ModeMainEffect:
		return mainEffect.Clone(), nil
	case ModeInteraction:
		return interaction.Clone(), nil
	}
	return nil, core.NewDomainError(core.ModuleCooling, core.ErrorCodeConfiguration,
		"cooling: could not determine EC algorithm mode")
}

package cooling

import (
	"fmt"
	"log/slog"

	"github.com/rushteam/ecool/core"
)

// Pruner 从工作集中移除自由能最低的属性，并记录到淘汰列表（只追加，用于审计）。
type Pruner struct {
	Target int
	Logger *slog.Logger

	evaporated core.RankedScoreList
}

// Clamp 把请求的移除数收缩到恰好落在目标数上：working - n >= target。
func (p *Pruner) Clamp(working, requested int) int {
	n := requested
	if n < 0 {
		n = 0
	}
	if working-n < p.Target {
		n = working - p.Target
		if n < 0 {
			n = 0
		}
		if p.Logger != nil {
			p.Logger.Warn("removal would overshoot the target attribute count, adjusting",
				"requested", requested,
				"adjusted", n,
				"working", working,
				"target", p.Target)
		}
	}
	return n
}

// Prune 对融合分数升序排序（最差在前），依次移除前 n 个属性。
// n 先经过 Clamp；返回实际移除的数量，0 表示无法继续推进。
// fused 会被原地排序。
func (p *Pruner) Prune(ws core.WorkingSet, fused core.RankedScoreList, n int) (int, error) {
	n = p.Clamp(ws.Len(), n)
	if n == 0 {
		return 0, nil
	}
	if n > len(fused) {
		return 0, core.NewDomainError(core.ModuleCooling, core.ErrorCodeConsistency,
			fmt.Sprintf("cooling: asked to remove %d attributes but only %d are scored", n, len(fused)))
	}
	fused.SortByScoreAsc()
	for i := 0; i < n; i++ {
		worst := fused[i]
		p.evaporated = append(p.evaporated, worst)
		if err := ws.Remove(worst.Name); err != nil {
			return i, core.WrapDomainError(core.ModuleCooling, core.ErrorCodeConsistency,
				fmt.Sprintf("cooling: remove attribute %q", worst.Name), err)
		}
		if p.Logger != nil {
			p.Logger.Debug("evaporated attribute", "name", worst.Name, "score", worst.Score)
		}
	}
	return n, nil
}

// Evaporated 返回按淘汰顺序记录的属性（拷贝）。
func (p *Pruner) Evaporated() core.RankedScoreList {
	return p.evaporated.Clone()
}

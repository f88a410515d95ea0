package cooling

import "github.com/rushteam/ecool/core"

// Normalize 把一份原始分数列表 Min-Max 缩放到 [0, 1]。
// 公式: s' = (s - min) / (max - min)
//
// min/max 一次遍历求得，以第一个元素为初值。
// 当 max == min（退化分布）时原样返回输入列表、degenerate=true，由调用方打 WARN；
// 不做除法，不跳过属性，也不统一置为 0.5。
// 否则按源顺序生成一份新列表，名字与分数一一对应。
func Normalize(scores core.RankedScoreList) (out core.RankedScoreList, degenerate bool) {
	min, max, ok := scores.MinMax()
	if !ok {
		return scores, false
	}
	if min == max {
		return scores, true
	}
	rangeVal := max - min
	out = make(core.RankedScoreList, 0, len(scores))
	for _, s := range scores {
		out = append(out, core.ScoredAttribute{
			Score: (s.Score - min) / rangeVal,
			Name:  s.Name,
		})
	}
	return out, false
}

package core

import "sort"

// ScoredAttribute 是 EC 的最小单元：一个属性名及其分数。
// 每轮重新生成，创建后不修改；归一化或融合时整体替换。
type ScoredAttribute struct {
	Score float64 `json:"score"`
	Name  string  `json:"name"`
}

// RankedScoreList 是 ScoredAttribute 的有序序列。
// 不同引擎输出的顺序没有语义，只有显式排序后顺序才有意义。
type RankedScoreList []ScoredAttribute

// Clone 返回一份独立拷贝。
func (l RankedScoreList) Clone() RankedScoreList {
	if l == nil {
		return nil
	}
	out := make(RankedScoreList, len(l))
	copy(out, l)
	return out
}

// Names 按当前顺序返回属性名。
func (l RankedScoreList) Names() []string {
	names := make([]string, len(l))
	for i, s := range l {
		names[i] = s.Name
	}
	return names
}

// MinMax 一次遍历求最小/最大分数，以第一个元素作为初值。
// 空列表返回 ok=false。
func (l RankedScoreList) MinMax() (min, max float64, ok bool) {
	if len(l) == 0 {
		return 0, 0, false
	}
	min, max = l[0].Score, l[0].Score
	for _, s := range l[1:] {
		if s.Score < min {
			min = s.Score
		}
		if s.Score > max {
			max = s.Score
		}
	}
	return min, max, true
}

// SortByScoreAsc 按分数升序（最差在前）原地排序，同分按名字升序。
func (l RankedScoreList) SortByScoreAsc() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Score != l[j].Score {
			return l[i].Score < l[j].Score
		}
		return l[i].Name < l[j].Name
	})
}

// SortByScoreDesc 按分数降序原地排序，同分按名字降序。
// 与 SortByScoreAsc 互为精确逆序：升序下被淘汰的属性在降序下总排在末尾。
func (l RankedScoreList) SortByScoreDesc() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Score != l[j].Score {
			return l[i].Score > l[j].Score
		}
		return l[i].Name > l[j].Name
	})
}

// SortByName 按属性名升序原地排序，用于两个引擎输出的对齐。
func (l RankedScoreList) SortByName() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Name < l[j].Name
	})
}

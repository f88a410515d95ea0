package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rushteam/ecool/core"
)

// Column 是诊断输出中的一列分数
type Column struct {
	Label  string
	Scores core.RankedScoreList
}

// PrintTabular 把多列分数按降序并排打印，每列为 "名字 分数"。
// 各列长度必须一致，否则返回 CONSISTENCY 错误。
func PrintTabular(w io.Writer, cols ...Column) error {
	sorted, err := sortedColumns(cols)
	if err != nil {
		return err
	}
	if len(sorted) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	header := make([]string, 0, len(sorted)*2)
	for _, c := range sorted {
		header = append(header, c.Label, "")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i := range sorted[0].Scores {
		row := make([]string, 0, len(sorted)*2)
		for _, c := range sorted {
			s := c.Scores[i]
			row = append(row, s.Name, fmt.Sprintf("%6.4f", s.Score))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return outputError("print scores", err)
	}
	return nil
}

// Tau 是两列排序之间的 Kendall tau
type Tau struct {
	A, B  string
	Value float64
}

// KendallTaus 计算每一对列（按降序排名）之间的 Kendall tau。
func KendallTaus(cols ...Column) ([]Tau, error) {
	sorted, err := sortedColumns(cols)
	if err != nil {
		return nil, err
	}
	var out []Tau
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			tau, err := KendallTau(sorted[i].Scores.Names(), sorted[j].Scores.Names())
			if err != nil {
				return nil, err
			}
			out = append(out, Tau{A: sorted[i].Label, B: sorted[j].Label, Value: tau})
		}
	}
	return out, nil
}

// PrintKendallTaus 打印 "Kendall tau's: AvB: x, AvC: y, ..."
func PrintKendallTaus(w io.Writer, cols ...Column) error {
	taus, err := KendallTaus(cols...)
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(taus))
	for _, t := range taus {
		parts = append(parts, fmt.Sprintf("%sv%s: %g", t.A, t.B, t.Value))
	}
	if _, err := fmt.Fprintf(w, "Kendall tau's: %s\n", strings.Join(parts, ", ")); err != nil {
		return outputError("print kendall taus", err)
	}
	return nil
}

// KendallTau 计算同一组名字的两种排序之间的 Kendall tau-a：
// (一致对 - 不一致对) / (n(n-1)/2)。名字集合不同返回 CONSISTENCY 错误；
// 少于两个元素时返回 1。
func KendallTau(a, b []string) (float64, error) {
	if len(a) != len(b) {
		return 0, consistencyError(fmt.Sprintf("kendall tau: lists differ in size %d vs %d", len(a), len(b)))
	}
	n := len(a)
	if n < 2 {
		return 1, nil
	}
	rankB := make(map[string]int, n)
	for i, name := range b {
		rankB[name] = i
	}
	ranks := make([]int, n)
	for i, name := range a {
		r, ok := rankB[name]
		if !ok {
			return 0, consistencyError("kendall tau: attribute " + name + " missing from second list")
		}
		ranks[i] = r
	}

	var concordant, discordant int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if ranks[i] < ranks[j] {
				concordant++
			} else {
				discordant++
			}
		}
	}
	pairs := float64(n*(n-1)) / 2
	return float64(concordant-discordant) / pairs, nil
}

// sortedColumns 跳过空列，其余克隆后降序排序，并检查长度一致。
func sortedColumns(cols []Column) ([]Column, error) {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if len(c.Scores) == 0 {
			continue
		}
		if len(out) > 0 && len(c.Scores) != len(out[0].Scores) {
			return nil, consistencyError(fmt.Sprintf("%s and %s scores lists are not the same size (%d vs %d)",
				out[0].Label, c.Label, len(out[0].Scores), len(c.Scores)))
		}
		sorted := c.Scores.Clone()
		sorted.SortByScoreDesc()
		out = append(out, Column{Label: c.Label, Scores: sorted})
	}
	return out, nil
}

func consistencyError(msg string) error {
	return core.NewDomainError(core.ModuleOutput, core.ErrorCodeConsistency, "report: "+msg)
}

// Package dataset 提供 EC 使用的工作属性集与数据集特征描述。
// 数据本身由外部打分引擎持有，这里只维护属性名与掩码。
package dataset

import (
	"github.com/rushteam/ecool/core"
)

// WorkingSet 是内存实现的 core.WorkingSet：保留原始属性顺序，移除只是打掩码。
// 非并发安全：工作集只归 EC 控制器所有。
type WorkingSet struct {
	names  []string
	index  map[string]int
	masked map[string]bool
}

// NewWorkingSet 以属性名创建工作集。重复名字只保留第一次出现。
func NewWorkingSet(names []string) *WorkingSet {
	ws := &WorkingSet{
		names:  make([]string, 0, len(names)),
		index:  make(map[string]int, len(names)),
		masked: make(map[string]bool),
	}
	for _, n := range names {
		if _, ok := ws.index[n]; ok {
			continue
		}
		ws.index[n] = len(ws.names)
		ws.names = append(ws.names, n)
	}
	return ws
}

func (w *WorkingSet) Names() []string {
	out := make([]string, 0, w.Len())
	for _, n := range w.names {
		if !w.masked[n] {
			out = append(out, n)
		}
	}
	return out
}

func (w *WorkingSet) Len() int {
	return len(w.names) - len(w.masked)
}

func (w *WorkingSet) Contains(name string) bool {
	_, ok := w.index[name]
	return ok && !w.masked[name]
}

// Remove 把属性打上掩码（MaskRemoveAttribute）。
// 不存在或已被移除的属性返回 core.ErrAttributeNotFound。
func (w *WorkingSet) Remove(name string) error {
	if !w.Contains(name) {
		return core.ErrAttributeNotFound
	}
	w.masked[name] = true
	return nil
}

// Masked 按原始顺序返回已被移除的属性名。
func (w *WorkingSet) Masked() []string {
	out := make([]string, 0, len(w.masked))
	for _, n := range w.names {
		if w.masked[n] {
			out = append(out, n)
		}
	}
	return out
}

// 确保 WorkingSet 实现了 core.WorkingSet 接口
var _ core.WorkingSet = (*WorkingSet)(nil)

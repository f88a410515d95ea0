package store

import (
	"context"
	"sync"

	"github.com/rushteam/ecool/core"
)

// MemoryStore 是内存实现的 ResultStore，用于测试/开发。
// 进程退出后数据丢失。
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*core.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*core.RunRecord)}
}

func (m *MemoryStore) Name() string { return "memory" }

// SaveRun 保存一份深拷贝，调用方之后修改列表不影响已存结果。
func (m *MemoryStore) SaveRun(ctx context.Context, rec *core.RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeOutput, "store: run id is required")
	}
	cp := *rec
	cp.ECScores = rec.ECScores.Clone()
	cp.Evaporated = rec.Evaporated.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[rec.RunID] = &cp
	return nil
}

func (m *MemoryStore) LoadECScores(ctx context.Context, runID string) (core.RankedScoreList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.runs[runID]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return rec.ECScores.Clone(), nil
}

func (m *MemoryStore) LoadEvaporated(ctx context.Context, runID string) (core.RankedScoreList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.runs[runID]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return rec.Evaporated.Clone(), nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// 确保 MemoryStore 实现了 core.ResultStore 接口
var _ core.ResultStore = (*MemoryStore)(nil)

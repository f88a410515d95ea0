package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/ecool/core"
)

// Sharded 把一次打分并发分发给多个分片引擎并合并结果。
// 每个分片持有数据集的一部分属性，只返回它负责的那部分分数；
// 同一属性被多个分片返回视为一致性错误。
type Sharded struct {
	name string
	// Shards 分片引擎
	Shards []core.ScoringEngine
	// MaxConcurrent 最大并发数，<=0 表示不限制
	MaxConcurrent int
}

// NewSharded 创建分片引擎
func NewSharded(name string, maxConcurrent int, shards ...core.ScoringEngine) *Sharded {
	return &Sharded{name: name, Shards: shards, MaxConcurrent: maxConcurrent}
}

func (s *Sharded) Name() string {
	return s.name
}

// Rank 并发调用所有分片。任一分片失败即取消其余分片并返回 ENGINE_FAILURE。
// 合并结果按分片顺序拼接。
func (s *Sharded) Rank(ctx context.Context, ws core.WorkingSet) (core.RankedScoreList, error) {
	if len(s.Shards) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeEngineFailure,
			fmt.Sprintf("engine %s: no shards", s.name))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if s.MaxConcurrent > 0 {
		eg.SetLimit(s.MaxConcurrent)
	}

	results := make([]core.RankedScoreList, len(s.Shards))
	for i, shard := range s.Shards {
		eg.Go(func() error {
			scores, err := shard.Rank(egCtx, ws)
			if err != nil {
				if core.IsEngineFailure(err) {
					return err
				}
				return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeEngineFailure,
					fmt.Sprintf("engine %s: shard %s", s.name, shard.Name()), err)
			}
			results[i] = scores
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := make(core.RankedScoreList, 0, ws.Len())
	owner := make(map[string]string, ws.Len())
	for i, scores := range results {
		for _, sa := range scores {
			if prev, ok := owner[sa.Name]; ok {
				return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeConsistency,
					fmt.Sprintf("engine %s: attribute %s returned by shards %s and %s",
						s.name, sa.Name, prev, s.Shards[i].Name()))
			}
			owner[sa.Name] = s.Shards[i].Name()
			merged = append(merged, sa)
		}
	}
	return merged, nil
}

var _ core.ScoringEngine = (*Sharded)(nil)

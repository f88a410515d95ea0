// Package store 提供 core.ResultStore 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var rs core.ResultStore = store.NewMemoryStore()
//	rs, err := store.NewRedisStore(ctx, store.RedisOptions{Addr: "localhost:6379"})
package store

import "fmt"

// Key 布局（Redis）：
//
//	{prefix}run:{id}:meta        hash    mode / state / iterations / saved_at
//	{prefix}run:{id}:ec          zset    member=属性名 score=自由能分数
//	{prefix}run:{id}:evaporated  list    JSON 编码的 ScoredAttribute，按淘汰顺序
const DefaultKeyPrefix = "ecool:"

func metaKey(prefix, runID string) string {
	return fmt.Sprintf("%srun:%s:meta", prefix, runID)
}

func ecKey(prefix, runID string) string {
	return fmt.Sprintf("%srun:%s:ec", prefix, runID)
}

func evaporatedKey(prefix, runID string) string {
	return fmt.Sprintf("%srun:%s:evaporated", prefix, runID)
}

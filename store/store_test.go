package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/ecool/core"
)

func sampleRun(id string) *core.RunRecord {
	return &core.RunRecord{
		RunID:      id,
		Mode:       "both",
		State:      "converged",
		Iterations: 3,
		ECScores: core.RankedScoreList{
			{Name: "rs9", Score: 1.8},
			{Name: "rs8", Score: 1.2},
			{Name: "rs7", Score: 1.2},
		},
		Evaporated: core.RankedScoreList{
			{Name: "rs1", Score: 0},
			{Name: "rs2", Score: 0.1},
		},
	}
}

// exerciseResultStore 对任意 ResultStore 实现跑同一组用例
func exerciseResultStore(t *testing.T, rs core.ResultStore, runID string) {
	t.Helper()
	ctx := context.Background()

	_, err := rs.LoadECScores(ctx, runID)
	assert.True(t, core.IsRunNotFound(err))
	_, err = rs.LoadEvaporated(ctx, runID)
	assert.True(t, core.IsRunNotFound(err))

	assert.True(t, core.IsOutputError(rs.SaveRun(ctx, &core.RunRecord{})))

	rec := sampleRun(runID)
	require.NoError(t, rs.SaveRun(ctx, rec))
	// 保存后修改不影响已存结果
	rec.ECScores[0].Name = "mutated"

	ec, err := rs.LoadECScores(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, sampleRun(runID).ECScores, ec)

	evap, err := rs.LoadEvaporated(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, sampleRun(runID).Evaporated, evap)

	// 覆盖写入
	rec2 := sampleRun(runID)
	rec2.ECScores = rec2.ECScores[:1]
	rec2.Evaporated = nil
	require.NoError(t, rs.SaveRun(ctx, rec2))
	ec, err = rs.LoadECScores(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rs9"}, ec.Names())
	evap, err = rs.LoadEvaporated(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, evap)
}

func TestMemoryStore(t *testing.T) {
	rs := NewMemoryStore()
	defer rs.Close()
	assert.Equal(t, "memory", rs.Name())
	exerciseResultStore(t, rs, "run-1")
}

func TestMemoryStore_LoadedListsAreCopies(t *testing.T) {
	ctx := context.Background()
	rs := NewMemoryStore()
	require.NoError(t, rs.SaveRun(ctx, sampleRun("r")))

	ec, err := rs.LoadECScores(ctx, "r")
	require.NoError(t, err)
	ec[0].Score = -1

	again, err := rs.LoadECScores(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1.8, again[0].Score)
}

// 需要真实 Redis：ECOOL_TEST_REDIS_ADDR=localhost:6379 go test ./store/
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("ECOOL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ECOOL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := fmt.Sprintf("ecool-test-%d:", time.Now().UnixNano())
	rs, err := NewRedisStore(ctx, RedisOptions{Addr: addr, KeyPrefix: prefix, TTL: time.Minute})
	require.NoError(t, err)
	defer rs.Close()

	exerciseResultStore(t, rs, "run-1")

	meta, err := rs.LoadMeta(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "both", meta["mode"])
	assert.Equal(t, "3", meta["iterations"])

	_, err = rs.LoadMeta(ctx, "missing")
	assert.True(t, core.IsRunNotFound(err))
}

func TestNewRedisStore_Unavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisStore(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ecool:run:abc:meta", metaKey(DefaultKeyPrefix, "abc"))
	assert.Equal(t, "ecool:run:abc:ec", ecKey(DefaultKeyPrefix, "abc"))
	assert.Equal(t, "ecool:run:abc:evaporated", evaporatedKey(DefaultKeyPrefix, "abc"))
}

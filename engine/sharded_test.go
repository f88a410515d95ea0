package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/ecool/core"
	"github.com/rushteam/ecool/dataset"
)

// prefixShard 只对指定前缀的属性打分
type prefixShard struct {
	prefix string
	err    error
	calls  atomic.Int32
}

func (p *prefixShard) Name() string { return "shard-" + p.prefix }

func (p *prefixShard) Rank(_ context.Context, ws core.WorkingSet) (core.RankedScoreList, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	var out core.RankedScoreList
	for i, name := range ws.Names() {
		if strings.HasPrefix(name, p.prefix) {
			out = append(out, core.ScoredAttribute{Name: name, Score: float64(i)})
		}
	}
	return out, nil
}

func TestSharded_Rank(t *testing.T) {
	chr1 := &prefixShard{prefix: "chr1_"}
	chr2 := &prefixShard{prefix: "chr2_"}
	e := NewSharded("rj", 1, chr1, chr2)

	ws := dataset.NewWorkingSet([]string{"chr1_a", "chr2_a", "chr1_b", "chr2_b"})
	scores, err := e.Rank(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1_a", "chr1_b", "chr2_a", "chr2_b"}, scores.Names())
	assert.EqualValues(t, 1, chr1.calls.Load())
	assert.EqualValues(t, 1, chr2.calls.Load())
}

func TestSharded_Errors(t *testing.T) {
	ws := dataset.NewWorkingSet([]string{"chr1_a"})

	_, err := NewSharded("rj", 0).Rank(context.Background(), ws)
	assert.True(t, core.IsEngineFailure(err))

	boom := &prefixShard{prefix: "chr1_", err: errors.New("boom")}
	_, err = NewSharded("rj", 0, &prefixShard{prefix: "chr1_"}, boom).Rank(context.Background(), ws)
	require.Error(t, err)
	assert.True(t, core.IsEngineFailure(err))

	_, err = NewSharded("rj", 0, &prefixShard{prefix: "chr1_"}, &prefixShard{prefix: "chr"}).Rank(context.Background(), ws)
	assert.True(t, core.IsConsistencyError(err))
}

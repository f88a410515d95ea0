package cooling

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/ecool/core"
	"github.com/rushteam/ecool/dataset"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeEngine 按固定函数给工作集中的每个属性打分。
type fakeEngine struct {
	name  string
	score func(name string) float64
	// drop 非空时，从输出中去掉该属性（模拟契约被破坏）
	drop  string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Rank(_ context.Context, ws core.WorkingSet) (core.RankedScoreList, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	names := ws.Names()
	// 倒序输出，确保控制器不依赖引擎的输出顺序
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	out := make(core.RankedScoreList, 0, len(names))
	for _, n := range names {
		if n == f.drop {
			continue
		}
		out = append(out, core.ScoredAttribute{Score: f.score(n), Name: n})
	}
	return out, nil
}

// fakeRecorder 统计控制器上报的指标
type fakeRecorder struct {
	iterations int
	evaporated int
	working    []int
	engineErrs int
	degenerate int
}

func (r *fakeRecorder) IncIterations(string)                { r.iterations++ }
func (r *fakeRecorder) AddEvaporated(_ string, n int)       { r.evaporated += n }
func (r *fakeRecorder) SetWorkingAttributes(_ string, n int) { r.working = append(r.working, n) }
func (r *fakeRecorder) ObserveEngineDuration(string, float64) {}
func (r *fakeRecorder) IncEngineErrors(string, string)      { r.engineErrs++ }
func (r *fakeRecorder) IncDegenerate(string)                { r.degenerate++ }

func indexScore(name string) float64 {
	var v int
	for _, ch := range name[1:] {
		v = v*10 + int(ch-'0')
	}
	return float64(v)
}

func newEngines() (*fakeEngine, *fakeEngine) {
	mainEffect := &fakeEngine{name: "main", score: indexScore}
	interaction := &fakeEngine{name: "interaction", score: func(n string) float64 {
		v := indexScore(n)
		return v * v
	}}
	return mainEffect, interaction
}

func TestController_EndToEndFixedRemoval(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(20))
	mainEffect, interaction := newEngines()
	rec := &fakeRecorder{}

	var workingSeen []int
	ctrl, err := New(Config{
		Mode:             ModeBoth,
		TargetAttributes: 5,
		Removal:          RemovalSchedule{Count: 3},
	}, ws,
		WithMainEffectEngine(mainEffect),
		WithInteractionEngine(interaction),
		WithLogger(testLogger),
		WithRecorder(rec),
		WithObserver(func(it Iteration) {
			workingSeen = append(workingSeen, it.WorkingBefore-it.Removed)
			assert.Equal(t, 3, it.Removed)
			assert.Len(t, it.FreeEnergyScores, it.WorkingBefore)
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, ctrl.State())

	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateConverged, res.State)
	assert.Equal(t, StateConverged, ctrl.State())
	assert.Equal(t, 5, res.Iterations)
	assert.Equal(t, 5, mainEffect.calls)
	assert.Equal(t, 5, interaction.calls)
	assert.Equal(t, []int{17, 14, 11, 8, 5}, workingSeen)
	assert.Equal(t, 5, ws.Len())

	// 两个引擎都随编号递增，自由能最好的是编号最大的 5 个
	require.Len(t, res.ECScores, 5)
	assert.Equal(t, []string{"a19", "a18", "a17", "a16", "a15"}, res.ECScores.Names())
	for i := 1; i < len(res.ECScores); i++ {
		assert.GreaterOrEqual(t, res.ECScores[i-1].Score, res.ECScores[i].Score)
	}
	for _, n := range res.ECScores.Names() {
		assert.True(t, ws.Contains(n))
	}

	require.Len(t, res.Evaporated, 15)
	assert.Equal(t, []string{"a00", "a01", "a02"}, res.Evaporated[:3].Names())
	assert.Equal(t, 5, rec.iterations)
	assert.Equal(t, 15, rec.evaporated)
	assert.Zero(t, rec.degenerate)
	assert.Equal(t, res.ECScores, ctrl.ECScores())
}

func TestController_WorkingCountIsMonotonicAndNeverBelowTarget(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(23))
	mainEffect, _ := newEngines()

	prev := ws.Len()
	ctrl, err := New(Config{
		Mode:             ModeMainEffect,
		TargetAttributes: 4,
		Removal:          RemovalSchedule{Count: 6},
	}, ws,
		WithMainEffectEngine(mainEffect),
		WithLogger(testLogger),
		WithObserver(func(it Iteration) {
			after := it.WorkingBefore - it.Removed
			assert.LessOrEqual(t, after, prev)
			assert.GreaterOrEqual(t, after, 4)
			prev = after
		}),
	)
	require.NoError(t, err)

	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)
	// 23 -> 17 -> 11 -> 5 -> 4（最后一轮被收缩为 1）
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, StateConverged, res.State)
	assert.Len(t, res.ECScores, 4)
	assert.Equal(t, 4, ws.Len())
}

func TestController_PercentRecomputedAgainstCurrentWorkingSet(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(20))
	_, interaction := newEngines()

	var removedSeen []int
	ctrl, err := New(Config{
		Mode:             ModeInteraction,
		TargetAttributes: 5,
		Removal:          RemovalSchedule{Percent: 10},
	}, ws,
		WithInteractionEngine(interaction),
		WithLogger(testLogger),
		WithObserver(func(it Iteration) { removedSeen = append(removedSeen, it.Removed) }),
	)
	require.NoError(t, err)

	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	// 20 -> 18 (2)，之后每轮 floor(10% * 当前) = 1，直到 9 时 floor(0.9) = 0 停滞
	assert.Equal(t, []int{2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0}, removedSeen)
	assert.Equal(t, StateStalled, res.State)
	assert.Equal(t, 11, res.Iterations)
	assert.Equal(t, 9, ws.Len())
	assert.Len(t, res.ECScores, 5)
	assert.Len(t, res.Evaporated, 11)
}

func TestController_StallsWhenScheduleRemovesNothing(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(8))
	mainEffect, _ := newEngines()

	ctrl, err := New(Config{
		Mode:             ModeMainEffect,
		TargetAttributes: 3,
		Removal:          RemovalSchedule{Count: 0},
	}, ws, WithMainEffectEngine(mainEffect), WithLogger(testLogger))
	require.NoError(t, err)

	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateStalled, res.State)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 8, ws.Len())
	assert.Equal(t, []string{"a07", "a06", "a05"}, res.ECScores.Names())
}

func TestController_ConstructionValidation(t *testing.T) {
	mainEffect, interaction := newEngines()
	tests := []struct {
		name string
		cfg  Config
		opts []Option
	}{
		{
			name: "target equals attribute count",
			cfg:  Config{Mode: ModeBoth, TargetAttributes: 10, Removal: RemovalSchedule{Count: 1}},
			opts: []Option{WithMainEffectEngine(mainEffect), WithInteractionEngine(interaction)},
		},
		{
			name: "target above attribute count",
			cfg:  Config{Mode: ModeBoth, TargetAttributes: 11, Removal: RemovalSchedule{Count: 1}},
			opts: []Option{WithMainEffectEngine(mainEffect), WithInteractionEngine(interaction)},
		},
		{
			name: "target zero",
			cfg:  Config{Mode: ModeBoth, TargetAttributes: 0, Removal: RemovalSchedule{Count: 1}},
			opts: []Option{WithMainEffectEngine(mainEffect), WithInteractionEngine(interaction)},
		},
		{
			name: "unknown mode",
			cfg:  Config{Mode: Mode("sideways"), TargetAttributes: 3, Removal: RemovalSchedule{Count: 1}},
			opts: []Option{WithMainEffectEngine(mainEffect), WithInteractionEngine(interaction)},
		},
		{
			name: "missing interaction engine",
			cfg:  Config{Mode: ModeBoth, TargetAttributes: 3, Removal: RemovalSchedule{Count: 1}},
			opts: []Option{WithMainEffectEngine(mainEffect)},
		},
		{
			name: "missing main effect engine",
			cfg:  Config{Mode: ModeMainEffect, TargetAttributes: 3, Removal: RemovalSchedule{Count: 1}},
			opts: []Option{WithInteractionEngine(interaction)},
		},
		{
			name: "percent above 100",
			cfg:  Config{Mode: ModeInteraction, TargetAttributes: 3, Removal: RemovalSchedule{Percent: 150}},
			opts: []Option{WithInteractionEngine(interaction)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := dataset.NewWorkingSet(attributeNames(10))
			opts := append([]Option{WithLogger(testLogger)}, tt.opts...)
			ctrl, err := New(tt.cfg, ws, opts...)
			require.Error(t, err)
			assert.Nil(t, ctrl)
			assert.True(t, core.IsConfigurationError(err), "got %v", err)
		})
	}
	assert.Zero(t, mainEffect.calls)
	assert.Zero(t, interaction.calls)
}

func TestController_EngineFailureAborts(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(10))
	mainEffect, interaction := newEngines()
	interaction.err = errors.New("relief-f exploded")
	rec := &fakeRecorder{}

	ctrl, err := New(Config{Mode: ModeBoth, TargetAttributes: 3, Removal: RemovalSchedule{Count: 2}}, ws,
		WithMainEffectEngine(mainEffect),
		WithInteractionEngine(interaction),
		WithLogger(testLogger),
		WithRecorder(rec),
	)
	require.NoError(t, err)

	res, err := ctrl.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, core.IsEngineFailure(err))
	assert.ErrorContains(t, err, "relief-f exploded")
	assert.Equal(t, StateFailed, ctrl.State())
	assert.Empty(t, ctrl.ECScores())
	assert.Equal(t, 10, ws.Len(), "nothing may be removed before fusion")
	assert.Equal(t, 1, rec.engineErrs)

	_, err = ctrl.Run(context.Background())
	assert.True(t, core.IsConfigurationError(err))
}

func TestController_NameSetMismatchFails(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(10))
	mainEffect, interaction := newEngines()
	interaction.drop = "a04"

	ctrl, err := New(Config{Mode: ModeBoth, TargetAttributes: 3, Removal: RemovalSchedule{Count: 2}}, ws,
		WithMainEffectEngine(mainEffect),
		WithInteractionEngine(interaction),
		WithLogger(testLogger),
	)
	require.NoError(t, err)

	_, err = ctrl.Run(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsConsistencyError(err))
	assert.Equal(t, StateFailed, ctrl.State())
	assert.Equal(t, 10, ws.Len())
}

func TestController_DegenerateScoresAreTolerated(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(6))
	mainEffect := &fakeEngine{name: "flat", score: func(string) float64 { return 0.3 }}
	rec := &fakeRecorder{}

	ctrl, err := New(Config{Mode: ModeMainEffect, TargetAttributes: 2, Removal: RemovalSchedule{Count: 2}}, ws,
		WithMainEffectEngine(mainEffect),
		WithLogger(testLogger),
		WithRecorder(rec),
	)
	require.NoError(t, err)

	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateConverged, res.State)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 2, rec.degenerate)
	// 同分按名字决胜：升序淘汰 a00..a03，保留 a05、a04
	assert.Equal(t, []string{"a05", "a04"}, res.ECScores.Names())
	for _, s := range res.ECScores {
		assert.Equal(t, 0.3, s.Score)
	}
}

// fixedEngine 无视工作集，总是返回同一份分数
type fixedEngine struct {
	name   string
	scores core.RankedScoreList
	err    error
}

func (f *fixedEngine) Name() string { return f.name }

func (f *fixedEngine) Rank(context.Context, core.WorkingSet) (core.RankedScoreList, error) {
	return f.scores.Clone(), f.err
}

func TestController_EngineOutputMustCoverWorkingSet(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		attributes  []string
		target      int
		main        core.RankedScoreList
		interaction core.RankedScoreList
	}{
		{
			name:        "unknown attribute in both engines",
			mode:        ModeBoth,
			attributes:  []string{"a", "b", "c", "d"},
			target:      2,
			main:        core.RankedScoreList{{Score: 1, Name: "a"}, {Score: 2, Name: "b"}, {Score: 3, Name: "c"}, {Score: 4, Name: "ghost"}},
			interaction: core.RankedScoreList{{Score: 1, Name: "a"}, {Score: 2, Name: "b"}, {Score: 3, Name: "c"}, {Score: 4, Name: "ghost"}},
		},
		{
			name:       "too few scores in main effect mode",
			mode:       ModeMainEffect,
			attributes: []string{"a", "b", "c", "d", "e"},
			target:     3,
			main:       core.RankedScoreList{{Score: 1, Name: "a"}, {Score: 2, Name: "b"}},
		},
		{
			name:        "duplicate attribute in interaction mode",
			mode:        ModeInteraction,
			attributes:  []string{"a", "b", "c"},
			target:      1,
			interaction: core.RankedScoreList{{Score: 1, Name: "a"}, {Score: 2, Name: "b"}, {Score: 3, Name: "b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := dataset.NewWorkingSet(tt.attributes)
			opts := []Option{WithLogger(testLogger)}
			if tt.main != nil {
				opts = append(opts, WithMainEffectEngine(&fixedEngine{name: "main", scores: tt.main}))
			}
			if tt.interaction != nil {
				opts = append(opts, WithInteractionEngine(&fixedEngine{name: "interaction", scores: tt.interaction}))
			}
			ctrl, err := New(Config{Mode: tt.mode, TargetAttributes: tt.target, Removal: RemovalSchedule{Count: 1}}, ws, opts...)
			require.NoError(t, err)

			res, err := ctrl.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, core.IsConsistencyError(err), err.Error())
			assert.Equal(t, StateFailed, ctrl.State())
			assert.Empty(t, ctrl.ECScores())
			assert.Equal(t, len(tt.attributes), ws.Len())
		})
	}
}

func TestController_EngineDomainErrorKeepsItsCode(t *testing.T) {
	ws := dataset.NewWorkingSet(attributeNames(4))
	shardErr := core.NewDomainError(core.ModuleEngine, core.ErrorCodeConsistency,
		"engine rj: attribute a01 returned by shards rj-0 and rj-1")
	ctrl, err := New(Config{Mode: ModeMainEffect, TargetAttributes: 2, Removal: RemovalSchedule{Count: 1}}, ws,
		WithMainEffectEngine(&fixedEngine{name: "rj", err: shardErr}),
		WithLogger(testLogger),
	)
	require.NoError(t, err)

	_, err = ctrl.Run(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsConsistencyError(err))
	assert.False(t, core.IsEngineFailure(err))
	assert.Equal(t, StateFailed, ctrl.State())
}

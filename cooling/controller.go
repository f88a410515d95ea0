// Package cooling 实现 Evaporative Cooling（EC）特征选择主循环。
//
// 每一轮：主效应引擎打分 → 归一化；交互效应引擎打分 → 归一化；
// 按名字对齐后计算自由能；移除自由能最低的若干属性；直到剩下目标数量。
//
// 参考：McKinney et al. "Capturing the Spectrum of Interaction Effects in
// Genetic Association Studies by Simulated Evaporative Cooling Network
// Analysis." PLoS Genetics 5(3), 2009。变温与分类器精度优化步骤未实现。
package cooling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rushteam/ecool/core"
)

const tracerName = "github.com/rushteam/ecool/cooling"

// State 是控制器状态机的状态。
type State int

const (
	StateRunning   State = iota // 迭代中
	StateConverged              // 工作集恰好等于目标数
	StateStalled                // 某轮计算出的移除数为 0，但仍高于目标数
	StateFailed                 // 协作方失败，不产出分数
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateConverged:
		return "converged"
	case StateStalled:
		return "stalled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Recorder 接收控制器的观测数据，metrics.Metrics 实现此接口。
type Recorder interface {
	IncIterations(mode string)
	AddEvaporated(mode string, n int)
	SetWorkingAttributes(mode string, n int)
	ObserveEngineDuration(engine string, seconds float64)
	IncEngineErrors(engine, errorType string)
	IncDegenerate(engine string)
}

// Iteration 是一轮结束时的快照，供诊断输出使用。
type Iteration struct {
	Index             int
	WorkingBefore     int
	Removed           int
	MainEffectScores  core.RankedScoreList
	InteractionScores core.RankedScoreList
	FreeEnergyScores  core.RankedScoreList
}

// Result 是一次运行的最终结果。
type Result struct {
	Mode       Mode
	State      State
	Iterations int
	// ECScores 自由能降序、截断到目标数
	ECScores core.RankedScoreList
	// Evaporated 按淘汰顺序记录
	Evaporated core.RankedScoreList
}

// Option 配置控制器的可选协作方
type Option func(*Controller)

// WithMainEffectEngine 设置主效应引擎
func WithMainEffectEngine(e core.ScoringEngine) Option {
	return func(c *Controller) { c.mainEngine = e }
}

// WithInteractionEngine 设置交互效应引擎
func WithInteractionEngine(e core.ScoringEngine) Option {
	return func(c *Controller) { c.interactionEngine = e }
}

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithObserver 设置每轮结束时的回调（同步调用）
func WithObserver(fn func(Iteration)) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithTracerProvider 设置 tracer provider，默认使用全局 provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Controller) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// Controller 拥有 EC 的全部迭代状态。
// 工作集、三份分数列表与淘汰列表都只归控制器所有，循环严格串行，无需加锁。
type Controller struct {
	cfg               Config
	ws                core.WorkingSet
	mainEngine        core.ScoringEngine
	interactionEngine core.ScoringEngine
	logger            *slog.Logger
	recorder          Recorder
	observer          func(Iteration)
	tracer            trace.Tracer

	state     State
	iteration int
	working   int
	pruner    *Pruner

	mainScores        core.RankedScoreList
	interactionScores core.RankedScoreList
	freeEnergyScores  core.RankedScoreList
	ecScores          core.RankedScoreList
}

// New 校验配置并创建控制器，成功后处于 RUNNING 状态。
// 目标数越界、模式未知或模式所需引擎缺失都返回 CONFIGURATION 错误，且不会调用任何引擎。
func New(cfg Config, ws core.WorkingSet, opts ...Option) (*Controller, error) {
	if ws == nil {
		return nil, configError("working attribute set is not initialized")
	}
	c := &Controller{
		cfg:    cfg,
		ws:     ws,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := cfg.validate(ws.Len()); err != nil {
		return nil, err
	}
	if cfg.Mode.UsesMainEffect() && c.mainEngine == nil {
		return nil, configError(fmt.Sprintf("mode %s requires a main effect engine", cfg.Mode))
	}
	if cfg.Mode.UsesInteraction() && c.interactionEngine == nil {
		return nil, configError(fmt.Sprintf("mode %s requires an interaction engine", cfg.Mode))
	}
	c.state = StateRunning
	c.iteration = 1
	c.working = ws.Len()
	c.pruner = &Pruner{Target: cfg.TargetAttributes, Logger: c.logger}

	c.logger.Info("evaporative cooling initialized",
		"mode", cfg.Mode,
		"attributes", c.working,
		"target", cfg.TargetAttributes,
		"removal", cfg.Removal.String())
	return c, nil
}

// Run 执行 EC 主循环，直到 CONVERGED、STALLED 或 FAILED。
// 只能调用一次。失败时不产出任何分数。
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	if c.state != StateRunning {
		return nil, core.NewDomainError(core.ModuleCooling, core.ErrorCodeConfiguration,
			fmt.Sprintf("cooling: controller already finished in state %s", c.state))
	}
	ctx, span := c.tracer.Start(ctx, "cooling.Run", trace.WithAttributes(
		attribute.String("ec.mode", string(c.cfg.Mode)),
		attribute.Int("ec.attributes", c.working),
		attribute.Int("ec.target", c.cfg.TargetAttributes),
	))
	defer span.End()

	rounds := 0
	for c.state == StateRunning {
		if err := c.step(ctx); err != nil {
			c.state = StateFailed
			c.ecScores = nil
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		rounds++
		if c.state == StateRunning {
			c.iteration++
		}
	}

	c.logger.Info("evaporative cooling finished",
		"state", c.state,
		"iterations", rounds,
		"working", c.working,
		"target", c.cfg.TargetAttributes)

	// 剩余属性按自由能降序，截断到目标数
	final := c.freeEnergyScores.Clone()
	final.SortByScoreDesc()
	if len(final) > c.cfg.TargetAttributes {
		final = final[:c.cfg.TargetAttributes]
	}
	c.ecScores = final

	span.SetAttributes(
		attribute.String("ec.state", c.state.String()),
		attribute.Int("ec.iterations", rounds),
	)
	return &Result{
		Mode:       c.cfg.Mode,
		State:      c.state,
		Iterations: rounds,
		ECScores:   c.ecScores.Clone(),
		Evaporated: c.pruner.Evaporated(),
	}, nil
}

// step 执行一轮：打分 → 归一化 → 融合 → 移除。
func (c *Controller) step(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "cooling.Iteration", trace.WithAttributes(
		attribute.Int("ec.iteration", c.iteration),
		attribute.Int("ec.working", c.working),
	))
	defer span.End()

	mode := string(c.cfg.Mode)
	c.logger.Info("EC algorithm iteration",
		"iteration", c.iteration,
		"working", c.working,
		"target", c.cfg.TargetAttributes)
	if c.recorder != nil {
		c.recorder.SetWorkingAttributes(mode, c.working)
	}

	c.mainScores = nil
	c.interactionScores = nil
	c.freeEnergyScores = nil

	if c.cfg.Mode.UsesMainEffect() {
		scores, err := c.rank(ctx, c.mainEngine)
		if err != nil {
			return err
		}
		c.mainScores = scores
	}
	if c.cfg.Mode.UsesInteraction() {
		scores, err := c.rank(ctx, c.interactionEngine)
		if err != nil {
			return err
		}
		c.interactionScores = scores
	}

	start := time.Now()
	fused, err := FreeEnergy(c.cfg.Mode, c.mainScores, c.interactionScores, c.cfg.temperature())
	if err != nil {
		c.logger.Error("compute free energy failed", "error", err)
		return err
	}
	c.freeEnergyScores = fused
	c.logger.Debug("free energy calculations complete", "elapsed", time.Since(start))

	before := c.working
	numToRemove := c.cfg.Removal.NumToRemove(c.working)
	removed, err := c.pruner.Prune(c.ws, c.freeEnergyScores, numToRemove)
	if err != nil {
		c.logger.Error("remove worst attributes failed", "error", err)
		return err
	}
	c.working -= removed
	c.logger.Info("removed worst attributes", "removed", removed, "working", c.working)
	if c.recorder != nil {
		c.recorder.IncIterations(mode)
		c.recorder.AddEvaporated(mode, removed)
		c.recorder.SetWorkingAttributes(mode, c.working)
	}
	span.SetAttributes(attribute.Int("ec.removed", removed))

	if c.observer != nil {
		c.observer(Iteration{
			Index:             c.iteration,
			WorkingBefore:     before,
			Removed:           removed,
			MainEffectScores:  c.mainScores.Clone(),
			InteractionScores: c.interactionScores.Clone(),
			FreeEnergyScores:  c.freeEnergyScores.Clone(),
		})
	}

	switch {
	case c.working == c.cfg.TargetAttributes:
		c.state = StateConverged
	case removed == 0:
		c.logger.Warn("no attributes could be removed this iteration, stopping",
			"working", c.working,
			"target", c.cfg.TargetAttributes,
			"requested", numToRemove)
		c.state = StateStalled
	}
	return nil
}

// rank 调用一个引擎并归一化其输出。
func (c *Controller) rank(ctx context.Context, engine core.ScoringEngine) (core.RankedScoreList, error) {
	name := engine.Name()
	start := time.Now()
	c.logger.Info("running scoring engine", "engine", name)
	raw, err := engine.Rank(ctx, c.ws)
	elapsed := time.Since(start)
	if c.recorder != nil {
		c.recorder.ObserveEngineDuration(name, elapsed.Seconds())
	}
	if err != nil {
		if c.recorder != nil {
			c.recorder.IncEngineErrors(name, "rank")
		}
		c.logger.Error("scoring engine failed", "engine", name, "error", err)
		if core.IsDomainError(err) {
			return nil, err
		}
		return nil, core.WrapDomainError(core.ModuleCooling, core.ErrorCodeEngineFailure,
			fmt.Sprintf("cooling: %s failed", name), err)
	}
	c.logger.Info("scoring engine finished", "engine", name, "scores", len(raw), "elapsed", elapsed)
	if err := c.checkCoverage(name, raw); err != nil {
		c.logger.Error("scoring engine output does not match working set", "engine", name, "error", err)
		return nil, err
	}

	normalized, degenerate := Normalize(raw)
	if degenerate {
		c.logger.Warn("min and max scores are the same, no normalization necessary", "engine", name)
		if c.recorder != nil {
			c.recorder.IncDegenerate(name)
		}
	}
	return normalized, nil
}

// checkCoverage 要求引擎输出恰好覆盖工作集：数量相同、无重复、无工作集外的属性。
func (c *Controller) checkCoverage(engine string, scores core.RankedScoreList) error {
	if len(scores) != c.ws.Len() {
		return consistencyError(fmt.Sprintf("%s returned %d scores for %d working attributes",
			engine, len(scores), c.ws.Len()))
	}
	seen := make(map[string]struct{}, len(scores))
	for _, s := range scores {
		if !c.ws.Contains(s.Name) {
			return consistencyError(fmt.Sprintf("%s scored %q which is not a working attribute", engine, s.Name))
		}
		if _, dup := seen[s.Name]; dup {
			return consistencyError(fmt.Sprintf("%s scored %q more than once", engine, s.Name))
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func consistencyError(msg string) error {
	return core.NewDomainError(core.ModuleCooling, core.ErrorCodeConsistency, "cooling: "+msg)
}

// State 返回当前状态
func (c *Controller) State() State { return c.state }

// Iteration 返回当前轮次（从 1 开始）
func (c *Controller) Iteration() int { return c.iteration }

// WorkingAttributes 返回当前工作属性数
func (c *Controller) WorkingAttributes() int { return c.working }

// MainEffectScores 返回最近一轮归一化后的主效应分数
func (c *Controller) MainEffectScores() core.RankedScoreList { return c.mainScores.Clone() }

// InteractionScores 返回最近一轮归一化后的交互效应分数
func (c *Controller) InteractionScores() core.RankedScoreList { return c.interactionScores.Clone() }

// FreeEnergyScores 返回最近一轮的自由能分数
func (c *Controller) FreeEnergyScores() core.RankedScoreList { return c.freeEnergyScores.Clone() }

// ECScores 返回最终 EC 分数；运行结束前或失败时为空
func (c *Controller) ECScores() core.RankedScoreList { return c.ecScores.Clone() }

// Evaporated 返回淘汰记录
func (c *Controller) Evaporated() core.RankedScoreList { return c.pruner.Evaporated() }

// Mode 返回算法模式
func (c *Controller) Mode() Mode { return c.cfg.Mode }

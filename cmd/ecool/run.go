package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rushteam/ecool/config"
	"github.com/rushteam/ecool/cooling"
	"github.com/rushteam/ecool/core"
	"github.com/rushteam/ecool/dataset"
	"github.com/rushteam/ecool/metrics"
	"github.com/rushteam/ecool/pkg/dsl"
	"github.com/rushteam/ecool/report"
	"github.com/rushteam/ecool/store"
)

// runFlags 是 run 子命令的参数，未显式给出的参数不覆盖配置文件。
type runFlags struct {
	configFile string

	numTarget           int
	algorithmSteps      string
	ecIterRemoveN       int
	ecIterRemovePercent float64

	rjNumTrees        int
	rjNumThreads      int
	rjEndpoint        string
	rfNumThreads      int
	rfEndpoint        string
	iterRemoveN       int
	iterRemovePercent float64

	analysisType    string
	attributesFile  string
	attributeFilter string

	outFilesPrefix string
	diagnostics    bool
	storeType      string
	redisAddr      string
	metricsFile    string
	trace          bool
	logLevel       string
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run evaporative cooling and write the EC scores file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			return runEC(cmd.Context(), cfg, f.trace, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configFile, "config", "c", "", "YAML or JSON configuration file")

	fl.IntVar(&f.numTarget, "ec-num-target", 0, "number of attributes to keep")
	fl.StringVar(&f.algorithmSteps, "ec-algorithm-steps", "all", "EC steps to run: all, rj or rf")
	fl.IntVar(&f.ecIterRemoveN, "ec-iter-remove-n", 1, "attributes to evaporate per iteration")
	fl.Float64Var(&f.ecIterRemovePercent, "ec-iter-remove-percent", 0, "percent of working attributes to evaporate per iteration")

	fl.IntVar(&f.rjNumTrees, "rj-num-trees", 0, "random jungle tree count (0 for default)")
	fl.IntVar(&f.rjNumThreads, "rj-num-threads", 0, "random jungle threads (0 for all processors)")
	fl.StringVar(&f.rjEndpoint, "rj-endpoint", "", "random jungle scoring service endpoint")
	fl.IntVar(&f.rfNumThreads, "rf-num-threads", 0, "relief-f threads (0 for all processors)")
	fl.StringVar(&f.rfEndpoint, "rf-endpoint", "", "relief-f scoring service endpoint")
	fl.IntVar(&f.iterRemoveN, "iter-remove-n", 0, "relief-f internal attributes to remove per iteration")
	fl.Float64Var(&f.iterRemovePercent, "iter-remove-percent", 0, "relief-f internal percent of attributes to remove per iteration")

	fl.StringVar(&f.analysisType, "analysis-type", "", "snp-only, numeric-only or integrated")
	fl.StringVar(&f.attributesFile, "attributes-file", "", "file with one attribute name per line")
	fl.StringVar(&f.attributeFilter, "attribute-filter", "", `CEL expression selecting attributes, e.g. attr.name.startsWith("rs")`)

	fl.StringVar(&f.outFilesPrefix, "out-files-prefix", "ecool", "prefix of the EC scores file")
	fl.BoolVar(&f.diagnostics, "diagnostics", false, "print score tables and Kendall taus to stdout")
	fl.StringVar(&f.storeType, "store", "", "persist results to redis; memory is a dry run that validates the record and keeps nothing")
	fl.StringVar(&f.redisAddr, "redis-addr", "", "redis address for --store redis")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	fl.BoolVar(&f.trace, "trace", false, "print OpenTelemetry spans to stderr")
	fl.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

// loadConfig 读取配置文件（可选），再用显式给出的命令行参数覆盖。
func loadConfig(f *runFlags, changed func(name string) bool) (*config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		var err error
		if cfg, err = config.Load(f.configFile); err != nil {
			return nil, err
		}
	}

	if changed("ec-num-target") {
		cfg.Cooling.NumTarget = f.numTarget
	}
	if changed("ec-algorithm-steps") {
		cfg.Cooling.AlgorithmSteps = f.algorithmSteps
	}
	if changed("ec-iter-remove-n") {
		cfg.Cooling.IterRemoveN = f.ecIterRemoveN
	}
	if changed("ec-iter-remove-percent") {
		cfg.Cooling.IterRemovePercent = f.ecIterRemovePercent
	}
	if changed("rj-num-trees") {
		cfg.Engines.MainEffect.NumTrees = f.rjNumTrees
	}
	if changed("rj-num-threads") {
		cfg.Engines.MainEffect.Threads = f.rjNumThreads
	}
	if changed("rj-endpoint") {
		setRPCEndpoint(&cfg.Engines.MainEffect, f.rjEndpoint)
	}
	if changed("rf-num-threads") {
		cfg.Engines.Interaction.Threads = f.rfNumThreads
	}
	if changed("rf-endpoint") {
		setRPCEndpoint(&cfg.Engines.Interaction, f.rfEndpoint)
	}
	if changed("iter-remove-n") {
		cfg.Engines.Interaction.IterRemoveN = f.iterRemoveN
	}
	if changed("iter-remove-percent") {
		cfg.Engines.Interaction.IterRemovePercent = f.iterRemovePercent
	}
	if changed("analysis-type") {
		cfg.Dataset.AnalysisType = f.analysisType
	}
	if changed("attributes-file") {
		cfg.Dataset.AttributesFile = f.attributesFile
	}
	if changed("attribute-filter") {
		cfg.Dataset.Filter = f.attributeFilter
	}
	if changed("out-files-prefix") {
		cfg.Output.FilesPrefix = f.outFilesPrefix
	}
	if changed("diagnostics") {
		cfg.Output.Diagnostics = f.diagnostics
	}
	if changed("store") {
		cfg.Store.Type = f.storeType
	}
	if changed("redis-addr") {
		cfg.Store.Addr = f.redisAddr
	}
	if changed("metrics-file") {
		cfg.Metrics.File = f.metricsFile
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}

func setRPCEndpoint(ec *config.EngineConfig, endpoint string) {
	if ec.Type != "rpc" {
		ec.Type = "rpc"
		ec.Config = nil
	}
	if ec.Config == nil {
		ec.Config = make(map[string]any)
	}
	ec.Config["endpoint"] = endpoint
}

// runEC 执行一次完整的 EC：选属性 → 构建引擎 → 迭代 → 写结果/诊断/存储/指标。
func runEC(ctx context.Context, cfg *config.Config, traceEnabled bool, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := newLogger(stderr, cfg.Log.Level)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	defer writeMetrics(reg, cfg.Metrics.File, logger)

	opts := []cooling.Option{cooling.WithLogger(logger), cooling.WithRecorder(m)}
	if traceEnabled {
		tp, err := newTracerProvider(stderr)
		if err != nil {
			return err
		}
		defer shutdownTracer(context.Background(), tp, logger)
		opts = append(opts, cooling.WithTracerProvider(tp))
	}

	names, err := selectAttributes(ctx, cfg, logger)
	if err != nil {
		return err
	}
	engines, err := cfg.BuildEngines(len(names))
	if err != nil {
		return err
	}
	if engines.MainEffect != nil {
		p := engines.MainEffectParams
		logger.Info("main effect engine", "engine", engines.MainEffect.Name(),
			"trees", p.NumTrees, "tree_type", p.TreeType.String(), "threads", p.Threads)
		opts = append(opts, cooling.WithMainEffectEngine(engines.MainEffect))
	}
	if engines.Interaction != nil {
		p := engines.InteractionParams
		logger.Info("interaction engine", "engine", engines.Interaction.Name(),
			"variant", p.Variant, "iter_remove_n", p.IterRemoveN, "threads", p.Threads)
		opts = append(opts, cooling.WithInteractionEngine(engines.Interaction))
	}
	if cfg.Output.Diagnostics {
		opts = append(opts, cooling.WithObserver(func(it cooling.Iteration) {
			fmt.Fprintf(stdout, "iteration %d: working %d, evaporated %d\n", it.Index, it.WorkingBefore, it.Removed)
		}))
	}

	ccfg, err := cfg.CoolingConfig()
	if err != nil {
		return err
	}
	ctrl, err := cooling.New(ccfg, dataset.NewWorkingSet(names), opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := ctrl.Run(ctx)
	if err != nil {
		m.IncRuns(string(ccfg.Mode), cooling.StateFailed.String())
		return err
	}
	m.IncRuns(string(result.Mode), result.State.String())
	logger.Info("EC scores ready", "state", result.State, "iterations", result.Iterations,
		"scores", len(result.ECScores), "elapsed", time.Since(start))

	var errs []error
	path, err := report.SaveScores(cfg.Output.FilesPrefix, result.Mode, result.ECScores)
	if err != nil {
		logger.Error("could not write EC scores", "error", err)
		errs = append(errs, err)
	} else {
		logger.Info("EC scores written", "file", path)
	}

	if cfg.Output.Diagnostics {
		if err := printDiagnostics(stdout, ctrl); err != nil {
			logger.Warn("diagnostics skipped", "error", err)
		}
	}

	if err := saveResult(ctx, cfg, result, logger); err != nil {
		logger.Error("could not persist EC result", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// selectAttributes 确定初始属性集：显式列表 > 属性文件 > 引擎服务的属性列表，然后应用 CEL 过滤。
func selectAttributes(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	names, source, err := discoverAttributes(ctx, cfg)
	if err != nil {
		return nil, err
	}
	filter, err := dsl.NewAttributeFilter(cfg.Dataset.Filter)
	if err != nil {
		return nil, err
	}
	selected, err := filter.Apply(names)
	if err != nil {
		return nil, err
	}
	logger.Info("attributes selected", "source", source, "total", len(names),
		"selected", len(selected), "filter", filter.Expr())
	return selected, nil
}

func discoverAttributes(ctx context.Context, cfg *config.Config) ([]string, string, error) {
	if len(cfg.Dataset.Attributes) > 0 {
		return append([]string(nil), cfg.Dataset.Attributes...), "config", nil
	}
	if cfg.Dataset.AttributesFile != "" {
		names, err := dataset.ReadNamesFile(cfg.Dataset.AttributesFile)
		if err != nil {
			return nil, "", core.WrapDomainError(core.ModuleDataset, core.ErrorCodeConfiguration,
				"dataset: attributes file", err)
		}
		return names, cfg.Dataset.AttributesFile, nil
	}

	engines, err := cfg.BuildEngines(0)
	if err != nil {
		return nil, "", err
	}
	for _, e := range []core.ScoringEngine{engines.MainEffect, engines.Interaction} {
		lister, ok := e.(core.AttributeLister)
		if !ok {
			continue
		}
		names, err := lister.Attributes(ctx)
		if err != nil {
			return nil, "", err
		}
		return names, e.Name(), nil
	}
	return nil, "", core.NewDomainError(core.ModuleDataset, core.ErrorCodeConfiguration,
		"dataset: no attribute source (set dataset.attributes, dataset.attributes_file or use an rpc engine)")
}

// printDiagnostics 打印最后一轮三份分数的并排表与 Kendall tau。
func printDiagnostics(w io.Writer, ctrl *cooling.Controller) error {
	cols := []report.Column{
		{Label: "E (RF)", Scores: ctrl.InteractionScores()},
		{Label: "S (RJ)", Scores: ctrl.MainEffectScores()},
		{Label: "F (free energy)", Scores: ctrl.FreeEnergyScores()},
	}
	if err := report.PrintTabular(w, cols...); err != nil {
		return err
	}
	return report.PrintKendallTaus(w, cols...)
}

func saveResult(ctx context.Context, cfg *config.Config, result *cooling.Result, logger *slog.Logger) error {
	rs, err := openStore(ctx, cfg.Store)
	if err != nil || rs == nil {
		return err
	}
	defer rs.Close()

	rec := &core.RunRecord{
		RunID:      cfg.Output.FilesPrefix,
		Mode:       string(result.Mode),
		State:      result.State.String(),
		Iterations: result.Iterations,
		ECScores:   result.ECScores,
		Evaporated: result.Evaporated,
	}
	if err := rs.SaveRun(ctx, rec); err != nil {
		return err
	}
	if cfg.Store.Type == "memory" {
		logger.Info("EC result validated, dry run keeps nothing", "store", rs.Name(), "run_id", rec.RunID)
		return nil
	}
	logger.Info("EC result saved", "store", rs.Name(), "run_id", rec.RunID)
	return nil
}

// openStore 按配置打开结果存储。memory 只存活于本次进程，用作演练：
// 校验运行记录能被存储接受（如 run id 非空），结束时随进程丢弃。
func openStore(ctx context.Context, sc config.StoreConfig) (core.ResultStore, error) {
	switch sc.Type {
	case "":
		return nil, nil
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:      sc.Addr,
			Password:  sc.Password,
			DB:        sc.DB,
			KeyPrefix: sc.KeyPrefix,
			TTL:       time.Duration(sc.TTL) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
	return nil, fmt.Errorf("unsupported store type %q", sc.Type)
}

func writeMetrics(reg prometheus.Gatherer, path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(reg, path); err != nil {
		logger.Warn("could not write metrics file", "file", path, "error", err)
	}
}

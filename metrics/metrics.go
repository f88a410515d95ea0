// Package metrics 提供 EC 运行的 Prometheus 指标。
// Metrics 实现 cooling.Recorder，可直接传给 cooling.WithRecorder。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 指标名称
const (
	MetricIterationsTotal        = "ecool_iterations_total"
	MetricEvaporatedTotal        = "ecool_evaporated_attributes_total"
	MetricWorkingAttributes      = "ecool_working_attributes"
	MetricEngineDuration         = "ecool_engine_duration_seconds"
	MetricEngineErrorsTotal      = "ecool_engine_errors_total"
	MetricDegenerateNormalizeTot = "ecool_degenerate_normalizations_total"
	MetricRunsTotal              = "ecool_runs_total"
)

// Metrics 汇总 EC 控制器的观测数据，并发安全。
type Metrics struct {
	iterations  *prometheus.CounterVec
	evaporated  *prometheus.CounterVec
	working     *prometheus.GaugeVec
	engineDur   *prometheus.HistogramVec
	engineErrs  *prometheus.CounterVec
	degenerate  *prometheus.CounterVec
	runsByState *prometheus.CounterVec
}

// NewMetrics 创建指标，未注册；调用 Register 注册到指定 registry。
func NewMetrics() *Metrics {
	return &Metrics{
		iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricIterationsTotal,
				Help: "Total number of evaporative cooling iterations by mode",
			},
			[]string{"mode"},
		),
		evaporated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEvaporatedTotal,
				Help: "Total number of attributes evaporated by mode",
			},
			[]string{"mode"},
		),
		working: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricWorkingAttributes,
				Help: "Number of attributes still under consideration",
			},
			[]string{"mode"},
		),
		engineDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: MetricEngineDuration,
				Help: "Histogram of scoring engine run duration in seconds",
				// 森林训练可能需要几十分钟
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800, 3600},
			},
			[]string{"engine"},
		),
		engineErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEngineErrorsTotal,
				Help: "Total number of scoring engine errors by engine and error type",
			},
			[]string{"engine", "error_type"},
		),
		degenerate: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDegenerateNormalizeTot,
				Help: "Total number of score lists whose min and max were equal",
			},
			[]string{"engine"},
		),
		runsByState: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsTotal,
				Help: "Total number of evaporative cooling runs by mode and final state",
			},
			[]string{"mode", "state"},
		),
	}
}

// Register 把全部指标注册到 reg。
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) IncIterations(mode string) {
	m.iterations.WithLabelValues(mode).Inc()
}

func (m *Metrics) AddEvaporated(mode string, n int) {
	m.evaporated.WithLabelValues(mode).Add(float64(n))
}

func (m *Metrics) SetWorkingAttributes(mode string, n int) {
	m.working.WithLabelValues(mode).Set(float64(n))
}

func (m *Metrics) ObserveEngineDuration(engine string, seconds float64) {
	m.engineDur.WithLabelValues(engine).Observe(seconds)
}

// IncEngineErrors errorType 如 "rank"
func (m *Metrics) IncEngineErrors(engine, errorType string) {
	m.engineErrs.WithLabelValues(engine, errorType).Inc()
}

func (m *Metrics) IncDegenerate(engine string) {
	m.degenerate.WithLabelValues(engine).Inc()
}

// IncRuns 记录一次运行的终止状态
func (m *Metrics) IncRuns(mode, state string) {
	m.runsByState.WithLabelValues(mode, state).Inc()
}

// Collectors 返回全部 collector
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.iterations,
		m.evaporated,
		m.working,
		m.engineDur,
		m.engineErrs,
		m.degenerate,
		m.runsByState,
	}
}

// WriteTextfile 以 node_exporter textfile 格式把 reg 中的指标写入 path。
func WriteTextfile(reg prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, reg)
}

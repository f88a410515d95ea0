// Package config 负责加载 ecool 的运行配置（YAML/JSON），并按注册表构建打分引擎。
//
// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/ecool/config/builders"
// 以触发内置引擎（rpc、command、sharded）的 init 注册。
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/ecool/cooling"
	"github.com/rushteam/ecool/core"
	"github.com/rushteam/ecool/dataset"
)

// Config 是一次 EC 运行的完整配置（支持 YAML/JSON）。
type Config struct {
	Cooling CoolingConfig `yaml:"cooling" json:"cooling"`
	Dataset DatasetConfig `yaml:"dataset" json:"dataset"`
	Engines struct {
		MainEffect  EngineConfig `yaml:"main_effect" json:"main_effect"`
		Interaction EngineConfig `yaml:"interaction" json:"interaction"`
	} `yaml:"engines" json:"engines"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// CoolingConfig 对应 ec-* 命令行参数。
type CoolingConfig struct {
	AlgorithmSteps    string  `yaml:"algorithm_steps" json:"algorithm_steps"` // all / rj / rf
	NumTarget         int     `yaml:"num_target" json:"num_target"`
	IterRemoveN       int     `yaml:"iter_remove_n" json:"iter_remove_n"`
	IterRemovePercent float64 `yaml:"iter_remove_percent" json:"iter_remove_percent"`
	Temperature       float64 `yaml:"temperature" json:"temperature"`
}

// DatasetConfig 描述数据集特征与初始属性集的来源。
type DatasetConfig struct {
	dataset.Traits `yaml:",inline"`
	AnalysisType   string   `yaml:"analysis_type" json:"analysis_type"`
	Attributes     []string `yaml:"attributes" json:"attributes"`           // 显式属性列表
	AttributesFile string   `yaml:"attributes_file" json:"attributes_file"` // 每行一个属性名
	Filter         string   `yaml:"filter" json:"filter"`                   // CEL 过滤表达式
}

// EngineConfig 是单个打分引擎的配置。
type EngineConfig struct {
	Type              string         `yaml:"type" json:"type"` // rpc / command / sharded
	Name              string         `yaml:"name" json:"name"`
	NumTrees          int            `yaml:"num_trees" json:"num_trees"`
	Threads           int            `yaml:"threads" json:"threads"`
	IterRemoveN       int            `yaml:"iter_remove_n" json:"iter_remove_n"`
	IterRemovePercent float64        `yaml:"iter_remove_percent" json:"iter_remove_percent"`
	Config            map[string]any `yaml:"config" json:"config"` // 引擎类型特定配置
}

// OutputConfig 控制结果文件与诊断输出。
type OutputConfig struct {
	FilesPrefix string `yaml:"files_prefix" json:"files_prefix"`
	Diagnostics bool   `yaml:"diagnostics" json:"diagnostics"`
}

// StoreConfig 选择结果存储；Type 为空表示不持久化。
type StoreConfig struct {
	Type      string `yaml:"type" json:"type"` // redis；memory 为演练，不保留结果
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	TTL       int    `yaml:"ttl" json:"ttl"` // 秒，0 表示不过期
}

// MetricsConfig 控制 Prometheus 文本文件输出。
type MetricsConfig struct {
	File string `yaml:"file" json:"file"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// Default 返回与命令行默认值一致的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Cooling.AlgorithmSteps = "all"
	cfg.Cooling.IterRemoveN = 1
	cfg.Dataset.AnalysisType = string(dataset.AnalysisSNPOnly)
	cfg.Dataset.HasGenotypes = true
	cfg.Engines.MainEffect.Name = "random-jungle"
	cfg.Engines.Interaction.Name = "relief-f"
	cfg.Output.FilesPrefix = "ecool"
	cfg.Log.Level = "info"
	return cfg
}

// Load 按扩展名加载配置：.json 走 JSON，其余按 YAML。
// 文件中未出现的字段保留 Default 的值。
func Load(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadFromJSON(path)
	}
	return LoadFromYAML(path)
}

// LoadFromYAML 从 YAML 文件加载配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError("read file", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, loadError("parse yaml", err)
	}
	return cfg, nil
}

// LoadFromJSON 从 JSON 文件加载配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError("read file", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, loadError("parse json", err)
	}
	return cfg, nil
}

// Mode 解析算法模式
func (c *Config) Mode() (cooling.Mode, error) {
	return cooling.ParseMode(c.Cooling.AlgorithmSteps)
}

// CoolingConfig 转为控制器配置。目标数与初始属性数的关系由控制器构造时校验。
func (c *Config) CoolingConfig() (cooling.Config, error) {
	mode, err := c.Mode()
	if err != nil {
		return cooling.Config{}, err
	}
	return cooling.Config{
		Mode:             mode,
		TargetAttributes: c.Cooling.NumTarget,
		Removal: cooling.RemovalSchedule{
			Count:   c.Cooling.IterRemoveN,
			Percent: c.Cooling.IterRemovePercent,
		},
		Temperature: c.Cooling.Temperature,
	}, nil
}

// Analysis 解析分析类型
func (c *Config) Analysis() (dataset.AnalysisType, error) {
	a, err := dataset.ParseAnalysisType(c.Dataset.AnalysisType)
	if err != nil {
		return "", core.WrapDomainError(core.ModuleConfig, core.ErrorCodeConfiguration, "config: analysis type", err)
	}
	return a, nil
}

// Validate 校验与属性数无关的配置项：模式、分析类型、所需引擎已注册。
func (c *Config) Validate() error {
	mode, err := c.Mode()
	if err != nil {
		return err
	}
	if _, err := c.Analysis(); err != nil {
		return err
	}
	if c.Cooling.NumTarget < 1 {
		return configError("cooling.num_target must be at least 1")
	}
	if mode.UsesMainEffect() {
		if err := ValidateEngineConfig(c.Engines.MainEffect); err != nil {
			return fmt.Errorf("engines.main_effect: %w", err)
		}
	}
	if mode.UsesInteraction() {
		if err := ValidateEngineConfig(c.Engines.Interaction); err != nil {
			return fmt.Errorf("engines.interaction: %w", err)
		}
	}
	switch c.Store.Type {
	case "", "memory", "redis":
	default:
		return configError(fmt.Sprintf("unsupported store type %q (supported: memory, redis)", c.Store.Type))
	}
	return nil
}

func configError(msg string) error {
	return core.NewDomainError(core.ModuleConfig, core.ErrorCodeConfiguration, "config: "+msg)
}

func loadError(msg string, err error) error {
	return core.WrapDomainError(core.ModuleConfig, core.ErrorCodeConfiguration, "config: "+msg, err)
}

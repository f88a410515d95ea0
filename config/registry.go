package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/ecool/core"
)

// EngineBuilder 根据配置构建打分引擎。
// kind 为 engine.KindMainEffect 或 engine.KindInteraction；
// cfg 是 EngineConfig.Config 与推导出的引擎参数（"params"）合并后的结果。
// 各引擎类型在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type EngineBuilder func(name, kind string, cfg map[string]any) (core.ScoringEngine, error)

var (
	defaultBuilders   = make(map[string]EngineBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种引擎的构建逻辑。
// 建议在各引擎的 init 中调用，例如：func init() { config.Register("rpc", BuildRPCEngine) }
func Register(typeName string, builder EngineBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的引擎类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func lookup(typeName string) (EngineBuilder, bool) {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	b, ok := defaultBuilders[typeName]
	return b, ok
}

// ValidateEngineConfig 校验引擎类型已注册；未支持的类型返回包含已支持列表的错误。
func ValidateEngineConfig(ec EngineConfig) error {
	if ec.Type == "" {
		return configError("engine type is required")
	}
	if _, ok := lookup(ec.Type); !ok {
		return configError(fmt.Sprintf("unsupported engine type %q (supported: %v)", ec.Type, SupportedTypes()))
	}
	return nil
}

// BuildEngine 按类型构建引擎，构建失败统一包装为 CONFIGURATION 错误。
func BuildEngine(typeName, name, kind string, cfg map[string]any) (core.ScoringEngine, error) {
	builder, ok := lookup(typeName)
	if !ok {
		return nil, configError(fmt.Sprintf("unsupported engine type %q (supported: %v)", typeName, SupportedTypes()))
	}
	e, err := builder(name, kind, cfg)
	if err != nil {
		if core.IsConfigurationError(err) {
			return nil, err
		}
		return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeConfiguration,
			fmt.Sprintf("config: build %s engine %s", typeName, name), err)
	}
	return e, nil
}

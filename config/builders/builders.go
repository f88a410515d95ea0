// Package builders 注册内置打分引擎类型：rpc、command、sharded。
package builders

import (
	"fmt"

	"github.com/rushteam/ecool/config"
	"github.com/rushteam/ecool/core"
	"github.com/rushteam/ecool/engine"
	"github.com/rushteam/ecool/pkg/conv"
)

func init() {
	config.Register("rpc", BuildRPCEngine)
	config.Register("command", BuildCommandEngine)
	config.Register("sharded", BuildShardedEngine)
}

// BuildRPCEngine 配置项：endpoint（必填）、timeout（秒）、headers、params。
func BuildRPCEngine(name, kind string, cfg map[string]any) (core.ScoringEngine, error) {
	endpoint := conv.ConfigGet(cfg, "endpoint", "")
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint not found")
	}
	opts := []engine.RPCOption{
		engine.WithRPCTimeout(conv.ConfigGetSeconds(cfg, "timeout", 0)),
		engine.WithRPCParams(conv.ConfigGet[map[string]any](cfg, "params", nil)),
	}
	for k, v := range conv.ConfigGet[map[string]any](cfg, "headers", nil) {
		if s, ok := v.(string); ok {
			opts = append(opts, engine.WithRPCHeader(k, s))
		}
	}
	return engine.NewRPC(name, endpoint, kind, opts...), nil
}

// BuildCommandEngine 配置项：path（必填）、args、output_file、dir、env、params。
func BuildCommandEngine(name, kind string, cfg map[string]any) (core.ScoringEngine, error) {
	path := conv.ConfigGet(cfg, "path", "")
	if path == "" {
		return nil, fmt.Errorf("path not found")
	}
	params := conv.MergeMaps(conv.ConfigGet[map[string]any](cfg, "params", nil), map[string]any{"kind": kind})
	c := engine.NewCommand(name, path, conv.SliceAnyToString(cfg["args"]), params)
	c.OutputFile = conv.ConfigGet(cfg, "output_file", "")
	c.Dir = conv.ConfigGet(cfg, "dir", "")
	c.Env = conv.SliceAnyToString(cfg["env"])
	return c, nil
}

// BuildShardedEngine 配置项：shards（必填，每项为 {type, name, config}）、max_concurrent。
// 外层 params 会下发给每个分片，分片自身 config 中的 params 优先。
func BuildShardedEngine(name, kind string, cfg map[string]any) (core.ScoringEngine, error) {
	shardsConfig, ok := cfg["shards"].([]any)
	if !ok || len(shardsConfig) == 0 {
		return nil, fmt.Errorf("shards not found or invalid")
	}
	params := conv.ConfigGet[map[string]any](cfg, "params", nil)

	shards := make([]core.ScoringEngine, 0, len(shardsConfig))
	for i, sc := range shardsConfig {
		shardMap, ok := sc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("shard %d: invalid config", i)
		}
		shardType := conv.ConfigGet(shardMap, "type", "")
		if shardType == "sharded" {
			return nil, fmt.Errorf("shard %d: nested sharded engines are not supported", i)
		}
		shardName := conv.ConfigGet(shardMap, "name", fmt.Sprintf("%s-%d", name, i))
		shardCfg := conv.ConfigGet[map[string]any](shardMap, "config", nil)
		shardParams := conv.MergeMaps(params, conv.ConfigGet[map[string]any](shardCfg, "params", nil))
		shard, err := config.BuildEngine(shardType, shardName, kind,
			conv.MergeMaps(shardCfg, map[string]any{"params": shardParams}))
		if err != nil {
			return nil, fmt.Errorf("shard %d: %w", i, err)
		}
		shards = append(shards, shard)
	}

	maxConcurrent := int(conv.ConfigGetInt64(cfg, "max_concurrent", 0))
	if maxConcurrent <= 0 {
		if threads, ok := conv.ToInt(params["threads"]); ok {
			maxConcurrent = threads
		}
	}
	return engine.NewSharded(name, maxConcurrent, shards...), nil
}

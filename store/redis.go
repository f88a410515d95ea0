package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/ecool/core"
)

// RedisOptions 是 RedisStore 的连接配置。
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string        // 为空时使用 DefaultKeyPrefix
	TTL       time.Duration // 0 表示不过期
}

// RedisStore 是 Redis 实现的 ResultStore。
// 结果写入后可被下游分析（如 (re)GAIN、SNPrank）按 run id 读取。
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore 创建并 Ping 一次，连接失败返回 UNAVAILABLE。
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: redis ping "+opts.Addr, err)
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: opts.TTL}, nil
}

func (r *RedisStore) Name() string { return "redis" }

// SaveRun 在一个事务中覆盖写入元数据、EC 分数与淘汰记录。
func (r *RedisStore) SaveRun(ctx context.Context, rec *core.RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeOutput, "store: run id is required")
	}
	meta, ec, evap := metaKey(r.prefix, rec.RunID), ecKey(r.prefix, rec.RunID), evaporatedKey(r.prefix, rec.RunID)

	evaporated := make([]any, 0, len(rec.Evaporated))
	for _, s := range rec.Evaporated {
		data, err := json.Marshal(s)
		if err != nil {
			return core.WrapDomainError(core.ModuleStore, core.ErrorCodeOutput, "store: encode evaporated", err)
		}
		evaporated = append(evaporated, data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, meta, ec, evap)
		pipe.HSet(ctx, meta,
			"mode", rec.Mode,
			"state", rec.State,
			"iterations", rec.Iterations,
			"saved_at", time.Now().UTC().Format(time.RFC3339),
		)
		if len(rec.ECScores) > 0 {
			members := make([]redis.Z, 0, len(rec.ECScores))
			for _, s := range rec.ECScores {
				members = append(members, redis.Z{Score: s.Score, Member: s.Name})
			}
			pipe.ZAdd(ctx, ec, members...)
		}
		if len(evaporated) > 0 {
			pipe.RPush(ctx, evap, evaporated...)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, meta, r.ttl)
			pipe.Expire(ctx, ec, r.ttl)
			pipe.Expire(ctx, evap, r.ttl)
		}
		return nil
	})
	if err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeOutput, "store: save run "+rec.RunID, err)
	}
	return nil
}

// LoadECScores 按分数降序读取；同分时 Redis 按成员名逆字典序返回，与 SortByScoreDesc 一致。
func (r *RedisStore) LoadECScores(ctx context.Context, runID string) (core.RankedScoreList, error) {
	if err := r.ensureRun(ctx, runID); err != nil {
		return nil, err
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, ecKey(r.prefix, runID), 0, -1).Result()
	if err != nil {
		return nil, r.unavailable("load ec scores", err)
	}
	out := make(core.RankedScoreList, 0, len(zs))
	for _, z := range zs {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, core.ScoredAttribute{Name: name, Score: z.Score})
	}
	return out, nil
}

func (r *RedisStore) LoadEvaporated(ctx context.Context, runID string) (core.RankedScoreList, error) {
	if err := r.ensureRun(ctx, runID); err != nil {
		return nil, err
	}
	vals, err := r.client.LRange(ctx, evaporatedKey(r.prefix, runID), 0, -1).Result()
	if err != nil {
		return nil, r.unavailable("load evaporated", err)
	}
	out := make(core.RankedScoreList, 0, len(vals))
	for i, v := range vals {
		var s core.ScoredAttribute
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeConsistency,
				"store: decode evaporated #"+strconv.Itoa(i), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadMeta 读取运行元数据（mode / state / iterations / saved_at）。
func (r *RedisStore) LoadMeta(ctx context.Context, runID string) (map[string]string, error) {
	m, err := r.client.HGetAll(ctx, metaKey(r.prefix, runID)).Result()
	if err != nil {
		return nil, r.unavailable("load meta", err)
	}
	if len(m) == 0 {
		return nil, core.ErrRunNotFound
	}
	return m, nil
}

func (r *RedisStore) ensureRun(ctx context.Context, runID string) error {
	n, err := r.client.Exists(ctx, metaKey(r.prefix, runID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.ErrRunNotFound
		}
		return r.unavailable("exists", err)
	}
	if n == 0 {
		return core.ErrRunNotFound
	}
	return nil
}

func (r *RedisStore) unavailable(op string, err error) error {
	return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: redis "+op, err)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// 确保 RedisStore 实现了 core.ResultStore 接口
var _ core.ResultStore = (*RedisStore)(nil)

// Package engine 提供 core.ScoringEngine 的实现：
// 远程打分服务（RPC）、外部进程（Command）以及分片并发包装（Sharded）。
//
// 引擎内部如何计算重要性分数不属于本仓库的范围，这里只负责调用与解析。
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rushteam/ecool/core"
)

// 引擎种类，透传给远程服务
const (
	KindMainEffect  = "main_effect"
	KindInteraction = "interaction"
)

// RPC 是通过 HTTP 调用外部打分服务的 ScoringEngine 实现。
//
// 协议（JSON）：
//   - Rank: POST {endpoint}/v1/rank
//     请求：{"engine": "main_effect", "attributes": ["rs1", ...], "params": {"num_trees": 1000, ...}}
//     响应：{"scores": [{"name": "rs1", "score": 0.0123}, ...]}
//   - Attributes: GET {endpoint}/v1/attributes
//     响应：{"attributes": ["rs1", "rs2", ...]}
//
// 使用场景：Random Jungle / Relief-F 等以服务方式部署、自己持有数据集的打分引擎。
type RPC struct {
	name string
	// Endpoint 服务根地址，如 "http://localhost:8080"
	Endpoint string
	// Kind 引擎种类：main_effect / interaction
	Kind string
	// Params 每次 Rank 请求都会带上的参数
	Params map[string]any
	// Timeout 单次请求超时，0 表示不超时（一次森林训练可能很久）
	Timeout time.Duration
	// Headers 额外请求头（如认证）
	Headers map[string]string

	httpClient *http.Client
}

// RPCOption 配置 RPC 引擎
type RPCOption func(*RPC)

// WithRPCParams 设置请求参数
func WithRPCParams(params map[string]any) RPCOption {
	return func(e *RPC) {
		e.Params = params
	}
}

// WithRPCTimeout 设置超时
func WithRPCTimeout(timeout time.Duration) RPCOption {
	return func(e *RPC) {
		e.Timeout = timeout
		if e.httpClient != nil {
			e.httpClient.Timeout = timeout
		}
	}
}

// WithRPCHeader 添加请求头
func WithRPCHeader(key, value string) RPCOption {
	return func(e *RPC) {
		if e.Headers == nil {
			e.Headers = make(map[string]string)
		}
		e.Headers[key] = value
	}
}

// WithRPCHTTPClient 使用自定义 HTTP 客户端
func WithRPCHTTPClient(client *http.Client) RPCOption {
	return func(e *RPC) {
		e.httpClient = client
	}
}

// NewRPC 创建 RPC 引擎。endpoint 为根地址，kind 为 KindMainEffect 或 KindInteraction。
func NewRPC(name, endpoint, kind string, opts ...RPCOption) *RPC {
	e := &RPC{
		name:     name,
		Endpoint: strings.TrimRight(endpoint, "/"),
		Kind:     kind,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: e.Timeout}
	}
	return e
}

func (e *RPC) Name() string {
	return e.name
}

type rankRequest struct {
	Engine     string         `json:"engine"`
	Attributes []string       `json:"attributes"`
	Params     map[string]any `json:"params,omitempty"`
}

type rankResponse struct {
	Scores []core.ScoredAttribute `json:"scores"`
}

type attributesResponse struct {
	Attributes []string `json:"attributes"`
}

// Rank 把当前工作集发送给远程服务并返回原始分数。
// 传输错误、非 200、解析失败都返回 ENGINE_FAILURE。
func (e *RPC) Rank(ctx context.Context, ws core.WorkingSet) (core.RankedScoreList, error) {
	body, err := json.Marshal(rankRequest{
		Engine:     e.Kind,
		Attributes: ws.Names(),
		Params:     e.Params,
	})
	if err != nil {
		return nil, e.failure("marshal request", err)
	}

	var result rankResponse
	if err := e.do(ctx, http.MethodPost, "/v1/rank", body, &result); err != nil {
		return nil, err
	}
	for i, s := range result.Scores {
		if s.Name == "" {
			return nil, e.failure(fmt.Sprintf("score %d has no attribute name", i), nil)
		}
	}
	return core.RankedScoreList(result.Scores), nil
}

// Attributes 列出远程服务持有的数据集中的全部属性。
func (e *RPC) Attributes(ctx context.Context) ([]string, error) {
	var result attributesResponse
	if err := e.do(ctx, http.MethodGet, "/v1/attributes", nil, &result); err != nil {
		return nil, err
	}
	return result.Attributes, nil
}

func (e *RPC) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, e.Endpoint+path, reader)
	if err != nil {
		return e.failure("create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return e.failure("rpc call", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return e.failure(fmt.Sprintf("rpc error: status=%d, read body failed", resp.StatusCode), readErr)
		}
		return e.failure(fmt.Sprintf("rpc error: status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return e.failure("decode response", err)
	}
	return nil
}

func (e *RPC) failure(msg string, err error) error {
	return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeEngineFailure,
		fmt.Sprintf("engine %s: %s", e.name, msg), err)
}

var (
	_ core.ScoringEngine   = (*RPC)(nil)
	_ core.AttributeLister = (*RPC)(nil)
)

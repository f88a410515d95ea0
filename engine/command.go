package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rushteam/ecool/core"
)

// Command 通过运行外部程序（如 rjunglesparse、relieff 命令行）获得属性分数。
//
// 约定：
//   - 当前工作集属性名按行写入子进程 stdin
//   - Args 中的 {key} 占位符由 Params 替换，例如 "-t" "{num_trees}"
//   - OutputFile 非空时从该文件读取 .importance 格式结果，否则解析 stdout
type Command struct {
	name string
	// Path 可执行文件
	Path string
	// Args 参数模板
	Args []string
	// Params 占位符参数
	Params map[string]any
	// OutputFile 结果文件（可含占位符），为空时读 stdout
	OutputFile string
	// Dir 工作目录
	Dir string
	// Env 额外环境变量（KEY=VALUE）
	Env []string
}

// NewCommand 创建外部进程引擎
func NewCommand(name, path string, args []string, params map[string]any) *Command {
	return &Command{name: name, Path: path, Args: args, Params: params}
}

func (c *Command) Name() string {
	return c.name
}

// Rank 运行一次外部程序。非零退出、结果不可读或格式错误均返回 ENGINE_FAILURE。
func (c *Command) Rank(ctx context.Context, ws core.WorkingSet) (core.RankedScoreList, error) {
	if c.Path == "" {
		return nil, c.failure("empty command path", nil)
	}
	replacer := c.replacer()
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = replacer.Replace(a)
	}

	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = strings.NewReader(strings.Join(ws.Names(), "\n") + "\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, c.failure(fmt.Sprintf("run %s: %s", c.Path, tail(stderr.String(), 512)), err)
	}

	if c.OutputFile == "" {
		scores, err := ParseImportance(&stdout)
		if err != nil {
			return nil, c.failure("parse stdout", err)
		}
		return scores, nil
	}

	path := replacer.Replace(c.OutputFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, c.failure("open importance file", err)
	}
	defer f.Close()
	scores, err := ParseImportance(f)
	if err != nil {
		return nil, c.failure("parse "+path, err)
	}
	return scores, nil
}

func (c *Command) replacer() *strings.Replacer {
	pairs := make([]string, 0, len(c.Params)*2)
	for k, v := range c.Params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...)
}

func (c *Command) failure(msg string, err error) error {
	return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeEngineFailure,
		fmt.Sprintf("engine %s: %s", c.name, msg), err)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

var _ core.ScoringEngine = (*Command)(nil)

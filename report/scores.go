// Package report 负责 EC 结果的输出：分数文件与诊断打印。
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rushteam/ecool/cooling"
	"github.com/rushteam/ecool/core"
)

// WriteScores 每行写出 "<score %.8f>\t<name>\n"，按给定顺序。
func WriteScores(w io.Writer, scores core.RankedScoreList) error {
	bw := bufio.NewWriter(w)
	for _, s := range scores {
		if _, err := fmt.Fprintf(bw, "%.8f\t%s\n", s.Score, s.Name); err != nil {
			return outputError("write scores", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return outputError("flush scores", err)
	}
	return nil
}

// ScoresPath 返回结果文件路径：前缀 + 模式后缀（.ec / .ec.rj / .ec.rf）。
func ScoresPath(prefix string, mode cooling.Mode) (string, error) {
	suffix, err := mode.FileSuffix()
	if err != nil {
		return "", err
	}
	return prefix + suffix, nil
}

// SaveScores 把 EC 分数写入结果文件并返回文件路径。
// 失败返回 OUTPUT 错误，不影响调用方内存中的分数。
func SaveScores(prefix string, mode cooling.Mode, scores core.RankedScoreList) (path string, err error) {
	path, err = ScoresPath(prefix, mode)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", outputError("could not open EC scores file "+path+" for writing", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = outputError("close "+path, cerr)
		}
	}()
	if err := WriteScores(f, scores); err != nil {
		return "", err
	}
	return path, nil
}

func outputError(msg string, err error) error {
	return core.WrapDomainError(core.ModuleOutput, core.ErrorCodeOutput, "report: "+msg, err)
}

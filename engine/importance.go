package engine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rushteam/ecool/core"
)

// ParseImportance 解析 Random Jungle 风格的变量重要性（.importance）输出。
//
// 格式：第一行是表头，之后每行 4 列空白分隔，第 3 列为属性名，第 4 列为分数：
//
//	id varname ... importance
//	0 1 rs1001 0.0231
//
// 列数不为 4 或分数无法解析都返回错误，错误信息带行号（不含表头）。
func ParseImportance(r io.Reader) (core.RankedScoreList, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// 跳过表头
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return core.RankedScoreList{}, nil
	}

	scores := core.RankedScoreList{}
	lineNumber := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNumber++
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) != 4 {
			return nil, fmt.Errorf("error parsing line %d: read %d columns, should be 4", lineNumber, len(tokens))
		}
		score, err := strconv.ParseFloat(tokens[3], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing line %d: score %q: %w", lineNumber, tokens[3], err)
		}
		scores = append(scores, core.ScoredAttribute{Score: score, Name: tokens[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read importance: %w", err)
	}
	return scores, nil
}

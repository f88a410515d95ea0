package cooling

import (
	"fmt"
	"math"
	"strings"

	"github.com/rushteam/ecool/core"
)

// Mode 是 EC 的算法模式，构造后不再变化。
type Mode string

const (
	ModeUnknown     Mode = ""
	ModeBoth        Mode = "both"        // 主效应 + 交互效应（标准 EC）
	ModeMainEffect  Mode = "main_effect" // 只用主效应引擎（Random Jungle）
	ModeInteraction Mode = "interaction" // 只用交互效应引擎（Relief-F）
)

// ParseMode 解析模式字符串，大小写不敏感。
// 兼容命令行的 all / rj / rf 写法。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "both":
		return ModeBoth, nil
	case "rj", "main", "main_effect", "main-effect":
		return ModeMainEffect, nil
	case "rf", "interaction":
		return ModeInteraction, nil
	}
	return ModeUnknown, core.NewDomainError(core.ModuleConfig, core.ErrorCodeConfiguration,
		fmt.Sprintf("ec algorithm steps must be one of: all, rj or rf (got %q)", s))
}

// UsesMainEffect 判断该模式是否需要主效应引擎。
func (m Mode) UsesMainEffect() bool { return m == ModeBoth || m == ModeMainEffect }

// UsesInteraction 判断该模式是否需要交互效应引擎。
func (m Mode) UsesInteraction() bool { return m == ModeBoth || m == ModeInteraction }

// FileSuffix 返回结果文件后缀，用于区分完整 EC 与只跑一半的运行。
func (m Mode) FileSuffix() (string, error) {
	switch m {
	case ModeBoth:
		return ".ec", nil
	case ModeMainEffect:
		return ".ec.rj", nil
	case ModeInteraction:
		return ".ec.rf", nil
	}
	return "", core.NewDomainError(core.ModuleOutput, core.ErrorCodeOutput,
		"attempting to write attribute scores before the analysis mode was determined")
}

// RemovalSchedule 决定每轮移除多少个属性。
// Percent > 0 时按百分比计算，并且每轮都以“当前”工作集大小重新计算（不是初始大小）；
// 否则使用固定的 Count。
type RemovalSchedule struct {
	Count   int     `yaml:"count" json:"count"`
	Percent float64 `yaml:"percent" json:"percent"`
}

// NumToRemove 计算本轮的移除数：floor(percent/100 * working)。
func (s RemovalSchedule) NumToRemove(working int) int {
	if s.Percent > 0 {
		return int(math.Floor(s.Percent / 100.0 * float64(working)))
	}
	return s.Count
}

func (s RemovalSchedule) String() string {
	if s.Percent > 0 {
		return fmt.Sprintf("%g%% of working attributes", s.Percent)
	}
	return fmt.Sprintf("%d attributes", s.Count)
}

// Config 是 EC 控制器的不可变配置，构造时传入。
type Config struct {
	// Mode 算法模式
	Mode Mode
	// TargetAttributes 目标属性数，1 <= target < 初始属性数
	TargetAttributes int
	// Removal 每轮移除节奏
	Removal RemovalSchedule
	// Temperature 自由能温度，0 表示使用 DefaultTemperature
	Temperature float64
}

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

// validate 在任何引擎调用之前快速失败。
func (c Config) validate(initial int) error {
	if c.Mode != ModeBoth && c.Mode != ModeMainEffect && c.Mode != ModeInteraction {
		return configError(fmt.Sprintf("unknown EC algorithm mode %q", c.Mode))
	}
	if c.TargetAttributes < 1 {
		return configError("the number of target attributes must be at least 1")
	}
	if c.TargetAttributes >= initial {
		return configError(fmt.Sprintf(
			"the number of target attributes %d must be less than the number of attributes in the data set %d",
			c.TargetAttributes, initial))
	}
	if c.Removal.Count < 0 || c.Removal.Percent < 0 || c.Removal.Percent > 100 {
		return configError(fmt.Sprintf("invalid removal schedule: count=%d percent=%g",
			c.Removal.Count, c.Removal.Percent))
	}
	return nil
}

func configError(msg string) error {
	return core.NewDomainError(core.ModuleCooling, core.ErrorCodeConfiguration, "cooling: "+msg)
}

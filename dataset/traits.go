package dataset

import (
	"fmt"
	"strings"
)

// Traits 描述数据集的类型特征，决定主效应引擎使用分类树还是回归树。
type Traits struct {
	ContinuousOutcome bool `yaml:"continuous_outcome" json:"continuous_outcome"` // 表型为连续值
	HasNumerics       bool `yaml:"has_numerics" json:"has_numerics"`             // 含连续型属性
	HasGenotypes      bool `yaml:"has_genotypes" json:"has_genotypes"`           // 含离散（SNP）属性
}

// TreeType 是随机森林基学习器类型。
type TreeType int

const (
	TreeTypeUnknown                  TreeType = 0
	TreeTypeClassificationIntegrated TreeType = 1 // 连续/混合属性，离散表型
	TreeTypeClassificationDiscrete   TreeType = 2 // 离散属性，离散表型
	TreeTypeRegressionIntegrated     TreeType = 3 // 连续/混合属性，连续表型
	TreeTypeRegressionDiscrete       TreeType = 4 // 离散属性，连续表型
)

func (t TreeType) String() string {
	switch t {
	case TreeTypeClassificationIntegrated:
		return "classification trees: integrated/discrete"
	case TreeTypeClassificationDiscrete:
		return "classification trees: discrete/discrete"
	case TreeTypeRegressionIntegrated:
		return "regression trees: integrated/continuous"
	case TreeTypeRegressionDiscrete:
		return "regression trees: discrete/continuous"
	default:
		return "unknown"
	}
}

// Regression 判断是否走回归（数值矩阵）版本。
func (t TreeType) Regression() bool {
	return t == TreeTypeClassificationIntegrated ||
		t == TreeTypeRegressionIntegrated ||
		t == TreeTypeRegressionDiscrete
}

// TreeType 按表型与属性类型选择树类型。
// 既没有连续属性也没有离散属性时返回 TreeTypeUnknown。
func (t Traits) TreeType() TreeType {
	if t.ContinuousOutcome {
		switch {
		case t.HasNumerics && t.HasGenotypes:
			return TreeTypeRegressionIntegrated
		case t.HasGenotypes:
			return TreeTypeRegressionDiscrete
		case t.HasNumerics:
			return TreeTypeRegressionIntegrated
		}
		return TreeTypeUnknown
	}
	switch {
	case t.HasNumerics && t.HasGenotypes:
		return TreeTypeClassificationIntegrated
	case t.HasGenotypes:
		return TreeTypeClassificationDiscrete
	case t.HasNumerics:
		return TreeTypeClassificationIntegrated
	}
	return TreeTypeUnknown
}

// AnalysisType 是分析类型，影响交互效应引擎的变体选择。
type AnalysisType string

const (
	AnalysisSNPOnly     AnalysisType = "snp-only"
	AnalysisNumericOnly AnalysisType = "numeric-only"
	AnalysisIntegrated  AnalysisType = "integrated"
)

// ParseAnalysisType 解析分析类型，空串默认为 snp-only。
func ParseAnalysisType(s string) (AnalysisType, error) {
	switch AnalysisType(strings.ToLower(strings.TrimSpace(s))) {
	case "", AnalysisSNPOnly:
		return AnalysisSNPOnly, nil
	case AnalysisNumericOnly:
		return AnalysisNumericOnly, nil
	case AnalysisIntegrated:
		return AnalysisIntegrated, nil
	}
	return "", fmt.Errorf("unknown analysis type %q (want snp-only, numeric-only or integrated)", s)
}

// InteractionVariant 是交互效应引擎的调用方式。
type InteractionVariant string

const (
	VariantStandard  InteractionVariant = "standard"  // 标准单遍
	VariantClean     InteractionVariant = "clean"     // 混合数据类型的 clean 变体
	VariantIterative InteractionVariant = "iterative" // 引擎内部按自己的节奏迭代移除属性
)

// SelectInteractionVariant 按配置选择交互引擎变体：
// 配置了引擎自身的移除节奏则走迭代版；否则纯 SNP 分析走标准版，其余走 clean 版。
func SelectInteractionVariant(analysis AnalysisType, iterRemoveN int) InteractionVariant {
	if iterRemoveN > 0 {
		return VariantIterative
	}
	if analysis == AnalysisSNPOnly {
		return VariantStandard
	}
	return VariantClean
}

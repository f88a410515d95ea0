package core

import "context"

// WorkingSet 是仍在考察中的属性子集（工作属性集）。
//
// 设计原则：
//   - 定义在领域层（core），由 dataset 包实现
//   - 只会缩小，不会增大
//   - 只由 EC 控制器通过 Remove 修改
type WorkingSet interface {
	// Names 按原始顺序返回仍在考察中的属性名
	Names() []string

	// Len 返回当前工作属性数
	Len() int

	// Contains 判断属性是否仍在工作集中
	Contains(name string) bool

	// Remove 把属性移出考察范围；未知属性返回 NOT_FOUND
	Remove(name string) error
}

// ScoringEngine 是属性重要性打分引擎的领域接口。
//
// 主效应引擎（随机森林类）与交互效应引擎（近邻类）都实现此接口，
// 控制器按配置模式持有 0、1 或 2 个实例；测试中可替换为确定性的假引擎。
//
// Rank 是阻塞调用：引擎内部可以并行，但返回前必须完成全部计算。
// 返回的是未归一化的原始分数，顺序不作保证。
type ScoringEngine interface {
	// Name 返回引擎名称（用于日志/监控）
	Name() string

	// Rank 对当前工作集打分
	Rank(ctx context.Context, ws WorkingSet) (RankedScoreList, error)
}

// AttributeLister 由能列出数据集全部属性的引擎实现（例如远程打分服务）。
type AttributeLister interface {
	Attributes(ctx context.Context) ([]string, error)
}

// ErrAttributeNotFound 表示工作集中不存在该属性
var ErrAttributeNotFound = NewDomainError(ModuleDataset, ErrorCodeNotFound, "dataset: attribute not found")

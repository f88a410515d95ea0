package core

import "context"

// RunRecord 是一次 EC 运行需要持久化的全部结果。
type RunRecord struct {
	// RunID 运行标识（一般为输出文件前缀）
	RunID string
	// Mode 算法模式（both / main_effect / interaction）
	Mode string
	// State 终止状态（converged / stalled）
	State string
	// Iterations 实际执行的轮数
	Iterations int
	// ECScores 最终保留的属性及其自由能分数，降序
	ECScores RankedScoreList
	// Evaporated 按淘汰顺序记录的属性
	Evaporated RankedScoreList
}

// ResultStore 是 EC 结果存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 实现：
//   - store.Memory 实现此接口（测试/开发）
//   - store.Redis 实现此接口（共享结果，便于后续 (re)GAIN / SNPrank 等下游分析读取）
type ResultStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// SaveRun 覆盖写入一次运行的结果
	SaveRun(ctx context.Context, rec *RunRecord) error

	// LoadECScores 读取最终 EC 分数（降序）
	LoadECScores(ctx context.Context, runID string) (RankedScoreList, error)

	// LoadEvaporated 读取淘汰记录（按淘汰顺序）
	LoadEvaporated(ctx context.Context, runID string) (RankedScoreList, error)

	// Close 关闭连接/释放资源
	Close() error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrRunNotFound 表示运行记录不存在
	ErrRunNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: run not found")
)

// IsRunNotFound 检查错误是否为运行记录不存在
func IsRunNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 可包装底层错误（Err），支持 errors.Is / errors.As
//   - 支持错误检查函数（IsXXX）
//
// 错误分类：
//   - CONFIGURATION：构造阶段即失败（目标数越界、未知模式）
//   - ENGINE_FAILURE：打分引擎失败，整次运行中止
//   - CONSISTENCY：两份分数列表属性集合不一致，整次运行中止
//   - OUTPUT：结果文件无法写出，不影响内存中的分数
type DomainError struct {
	Code    string // 错误代码（如 "CONSISTENCY", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "cooling", "engine", "store"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建包装了底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeConfiguration = "CONFIGURATION"  // 配置无效，构造失败
	ErrorCodeEngineFailure = "ENGINE_FAILURE" // 打分引擎失败
	ErrorCodeConsistency   = "CONSISTENCY"    // 协作方契约被破坏
	ErrorCodeOutput        = "OUTPUT"         // 结果输出失败
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
)

// 模块名称常量
const (
	ModuleCooling = "cooling" // EC 主循环
	ModuleEngine  = "engine"  // 打分引擎
	ModuleDataset = "dataset" // 工作属性集
	ModuleOutput  = "output"  // 结果输出
	ModuleStore   = "store"   // 结果存储
	ModuleConfig  = "config"  // 配置
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsConfigurationError 检查错误是否为 CONFIGURATION
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrorCodeConfiguration)
}

// IsEngineFailure 检查错误是否为 ENGINE_FAILURE
func IsEngineFailure(err error) bool {
	return hasCode(err, ErrorCodeEngineFailure)
}

// IsConsistencyError 检查错误是否为 CONSISTENCY
func IsConsistencyError(err error) bool {
	return hasCode(err, ErrorCodeConsistency)
}

// IsOutputError 检查错误是否为 OUTPUT
func IsOutputError(err error) bool {
	return hasCode(err, ErrorCodeOutput)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

package xid

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// 错误定义
// =============================================================================

var (
	// ErrInvalidConfig 配置参数无效。
	// sonyflake 初始化失败（如 CheckMachineID 验证不通过）时也包裹为此错误。
	ErrInvalidConfig = errors.New("xid: invalid config")

	// ErrOverTimeLimit 时间分量溢出，Sonyflake 生成器无法继续生成 ID。
	ErrOverTimeLimit = errors.New("xid: time component overflow")
)

// =============================================================================
// Generator 接口
// =============================================================================

// Generator 生成全局唯一的不透明字符串 ID。
//
// 实现必须并发安全，且 NewID 不返回错误：ID 生成失败属于不可恢复的环境问题
// （如系统随机源不可用），实现应 panic 而非返回空串。
type Generator interface {
	NewID() string
}

// GeneratorFunc 将普通函数适配为 Generator。
type GeneratorFunc func() string

// NewID 实现 Generator。
func (f GeneratorFunc) NewID() string { return f() }

// =============================================================================
// UUID 实现
// =============================================================================

// UUIDGenerator 基于 UUID v4 的生成器，零值可用。
type UUIDGenerator struct{}

// NewUUIDGenerator 创建 UUID 生成器。
func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

// NewID 返回去掉连字符的 32 位小写十六进制 UUID。
//
// uuid.New 在系统随机源失败时 panic，这里保持该行为。
func (UUIDGenerator) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Default 返回默认生成器（UUID）。
func Default() Generator { return UUIDGenerator{} }

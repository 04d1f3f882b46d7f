package xid

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"

	"github.com/sony/sonyflake/v2"
)

// EnvMachineID 直接指定机器 ID 的环境变量（0-65535）。
const EnvMachineID = "XID_MACHINE_ID"

// 测试注入点
var osHostname = os.Hostname

// =============================================================================
// 配置
// =============================================================================

type options struct {
	machineID      func() (uint16, error)
	checkMachineID func(uint16) bool
}

// Option 配置 SonyflakeGenerator。
type Option func(*options)

// WithMachineID 设置自定义机器 ID 获取函数。默认使用 [DefaultMachineID]。
func WithMachineID(fn func() (uint16, error)) Option {
	return func(o *options) { o.machineID = fn }
}

// WithCheckMachineID 设置机器 ID 校验函数，返回 false 时创建失败。
func WithCheckMachineID(fn func(uint16) bool) Option {
	return func(o *options) { o.checkMachineID = fn }
}

// =============================================================================
// SonyflakeGenerator
// =============================================================================

// SonyflakeGenerator 基于 Sonyflake 的有序 ID 生成器。
type SonyflakeGenerator struct {
	// generateID 默认为 sf.NextID，测试中可替换
	generateID func() (int64, error)
}

// NewSonyflakeGenerator 创建 Sonyflake 生成器。
//
// nil Option 静默跳过，便于条件式构建 Option 列表。
func NewSonyflakeGenerator(opts ...Option) (*SonyflakeGenerator, error) {
	cfg := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	machineIDFn := cfg.machineID
	if machineIDFn == nil {
		machineIDFn = DefaultMachineID
	}
	settings := sonyflake.Settings{
		MachineID: func() (int, error) {
			id, err := machineIDFn()
			return int(id), err
		},
	}
	if cfg.checkMachineID != nil {
		settings.CheckMachineID = func(id int) bool {
			return cfg.checkMachineID(uint16(id))
		}
	}

	sf, err := sonyflake.New(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &SonyflakeGenerator{generateID: sf.NextID}, nil
}

// Next 返回下一个原始 ID。
func (g *SonyflakeGenerator) Next() (int64, error) {
	id, err := g.generateID()
	if err != nil {
		if errors.Is(err, sonyflake.ErrOverTimeLimit) {
			return 0, fmt.Errorf("%w: %w", ErrOverTimeLimit, err)
		}
		return 0, fmt.Errorf("xid: generate id: %w", err)
	}
	return id, nil
}

// NewID 实现 Generator，输出 16 位零填充小写十六进制。
//
// 设计决策: Generator 接口不返回错误。Sonyflake 唯一的失败原因是时间分量溢出
// （自 epoch 起约 174 年），属于部署错误，因此 panic。
func (g *SonyflakeGenerator) NewID() string {
	id, err := g.Next()
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%016x", id)
}

// =============================================================================
// 机器 ID
// =============================================================================

// DefaultMachineID 获取机器 ID，依次尝试：
//
//  1. XID_MACHINE_ID 环境变量（0-65535）
//  2. 主机名的 FNV-1a 哈希低 16 位
//
// 哈希方式存在碰撞风险，多实例部署应显式设置 XID_MACHINE_ID。
func DefaultMachineID() (uint16, error) {
	if s := os.Getenv(EnvMachineID); s != "" {
		id, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("xid: invalid %s value %q: %w", EnvMachineID, s, err)
		}
		return uint16(id), nil
	}
	host, err := osHostname()
	if err != nil {
		return 0, fmt.Errorf("xid: hostname: %w", err)
	}
	if host == "" {
		return 0, fmt.Errorf("%w: empty hostname", ErrInvalidConfig)
	}
	return hashToMachineID(host), nil
}

func hashToMachineID(s string) uint16 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s)) // fnv 的 Write 不会失败
	return uint16(h.Sum32())
}

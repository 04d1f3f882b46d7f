package xagent

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xsky/pkg/config/xconf"
	"github.com/omeyang/xsky/pkg/mq/xkafka"
	"github.com/omeyang/xsky/pkg/trace/xreporter"
)

// Collector 类型
const (
	CollectorGRPC  = "grpc"
	CollectorKafka = "kafka"
	// CollectorLog 把段写入日志，用于本地调试
	CollectorLog = "log"
)

// ID 生成器类型
const (
	IDsUUID      = "uuid"
	IDsSonyflake = "sonyflake"
)

// EnvPrefix 环境变量覆盖前缀，例如 XSKY_COLLECTOR__ADDRESS。
const EnvPrefix = "XSKY_"

// Config Agent 配置。
type Config struct {
	Service  string `koanf:"service"`
	Instance string `koanf:"instance"`
	// IDs 段与链路 ID 生成方式：uuid（默认）或 sonyflake
	IDs       string          `koanf:"ids"`
	Collector CollectorConfig `koanf:"collector"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Reporter  ReporterConfig  `koanf:"reporter"`
	Log       LogConfig       `koanf:"log"`
}

// CollectorConfig 投递目标。
type CollectorConfig struct {
	Kind    string `koanf:"kind"`
	Address string `koanf:"address"`
}

// KafkaConfig Kafka sink 配置，仅 collector.kind=kafka 时使用。
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// ReporterConfig 队列与投递策略。
type ReporterConfig struct {
	QueueSize   int           `koanf:"queue_size"`
	Overflow    string        `koanf:"overflow"`
	MaxBatch    int           `koanf:"max_batch"`
	SendTimeout time.Duration `koanf:"send_timeout"`
	// RetryAttempts 大于 1 时为 sink 启用重试
	RetryAttempts int  `koanf:"retry_attempts"`
	Breaker       bool `koanf:"breaker"`
	// StatsInterval 大于 0 时按周期输出投递统计
	StatsInterval time.Duration `koanf:"stats_interval"`
}

// LogConfig 日志配置，level 支持热更新。
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// Defaults 配置默认值，键为完整路径。
func Defaults() map[string]any {
	return map[string]any{
		"ids":                   IDsUUID,
		"collector.kind":        CollectorGRPC,
		"collector.address":     "127.0.0.1:11800",
		"kafka.topic":           xkafka.DefaultTopic,
		"reporter.queue_size":   xreporter.DefaultQueueSize,
		"reporter.overflow":     xreporter.OverflowDrop.String(),
		"reporter.max_batch":    1,
		"reporter.send_timeout": "10s",
		"log.level":             "info",
		"log.format":            "text",
	}
}

// LoadConfig 从文件加载配置：默认值 < 文件 < XSKY_ 环境变量。
// 返回的 *xconf.Config 可交给 Agent.WatchConfig 以热更新日志级别。
func LoadConfig(path string) (Config, *xconf.Config, error) {
	src, err := xconf.Load(path, xconf.WithDefaults(Defaults()), xconf.WithEnvPrefix(EnvPrefix))
	if err != nil {
		return Config{}, nil, err
	}
	var cfg Config
	if err := src.Unmarshal("", &cfg); err != nil {
		return Config{}, nil, err
	}
	return cfg, src, nil
}

// ParseConfig 从内存数据加载配置，规则同 LoadConfig。
func ParseConfig(data []byte, format xconf.Format) (Config, error) {
	src, err := xconf.LoadBytes(data, format, xconf.WithDefaults(Defaults()), xconf.WithEnvPrefix(EnvPrefix))
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := src.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查必填项与枚举值。
func (c *Config) Validate() error {
	if c.Service == "" {
		return ErrEmptyService
	}
	switch c.Collector.Kind {
	case CollectorGRPC:
		if c.Collector.Address == "" {
			return ErrEmptyAddress
		}
	case CollectorKafka:
		if len(c.Kafka.Brokers) == 0 {
			return ErrNoBrokers
		}
	case CollectorLog:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollector, c.Collector.Kind)
	}
	if _, err := c.overflowPolicy(); err != nil {
		return err
	}
	switch c.IDs {
	case "", IDsUUID, IDsSonyflake:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIDKind, c.IDs)
	}
	return nil
}

func (c *Config) overflowPolicy() (xreporter.OverflowPolicy, error) {
	switch c.Reporter.Overflow {
	case "", xreporter.OverflowDrop.String():
		return xreporter.OverflowDrop, nil
	case xreporter.OverflowBlock.String():
		return xreporter.OverflowBlock, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOverflow, c.Reporter.Overflow)
	}
}

// instanceName 未配置实例名时生成 <uuid>@<hostname>。
func (c *Config) instanceName() string {
	if c.Instance != "" {
		return c.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return uuid.NewString() + "@" + host
}

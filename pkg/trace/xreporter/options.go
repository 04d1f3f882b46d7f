package xreporter

import (
	"time"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/observability/xmetrics"
)

// DefaultQueueSize 默认队列容量。
const DefaultQueueSize = 1024

// OverflowPolicy 队列满时 Submit 的行为。
type OverflowPolicy int

const (
	// OverflowDrop 立即返回 ErrQueueFull。
	OverflowDrop OverflowPolicy = iota
	// OverflowBlock 阻塞等待空位。
	OverflowBlock
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowDrop:
		return "drop"
	case OverflowBlock:
		return "block"
	default:
		return "unknown"
	}
}

type options struct {
	queueSize   int
	overflow    OverflowPolicy
	maxBatch    int
	sendTimeout time.Duration
	stopOnError bool
	logger      xlog.Logger
	metrics     xmetrics.Recorder
	onError     func(error)
	dropLogGap  time.Duration
}

func defaultOptions() *options {
	return &options{
		queueSize:   DefaultQueueSize,
		overflow:    OverflowDrop,
		maxBatch:    1,
		sendTimeout: 10 * time.Second,
		metrics:     xmetrics.Noop{},
		dropLogGap:  10 * time.Second,
	}
}

// Option Reporter 配置选项
type Option func(*options)

// WithQueueSize 设置队列容量，必须大于 0。
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithOverflowPolicy 设置队列满策略，默认 OverflowDrop。
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(o *options) {
		o.overflow = p
	}
}

// WithMaxBatch 设置单次投递的最大段数，默认 1。
// 大于 1 时 Run 取到一个段后会非阻塞地再取出已在队列中的段，合并为一批。
func WithMaxBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBatch = n
		}
	}
}

// WithSendTimeout 设置单次投递的超时，0 表示只受 Run 的 ctx 约束。默认 10s。
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sendTimeout = d
		}
	}
}

// WithStopOnError 投递失败时 Run 返回 *DeliveryError，未投递的段留在队列中。
func WithStopOnError(enabled bool) Option {
	return func(o *options) {
		o.stopOnError = enabled
	}
}

// WithLogger 设置日志记录器，默认 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics 设置指标记录器，默认不记录。
func WithMetrics(m xmetrics.Recorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithOnError 设置投递失败回调，参数为 *DeliveryError。回调在 Run 协程中执行。
func WithOnError(f func(error)) Option {
	return func(o *options) {
		o.onError = f
	}
}

// WithDropLogInterval 设置丢弃告警日志的最小间隔，默认 10s。
func WithDropLogInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dropLogGap = d
		}
	}
}

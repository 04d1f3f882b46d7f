package xrun

import (
	"os"
	"syscall"

	"github.com/omeyang/xsky/pkg/observability/xlog"
)

type options struct {
	name    string
	logger  xlog.Logger
	signals []os.Signal
	// sigSource 非 nil 时替代 signal.Notify，仅供测试注入
	sigSource <-chan os.Signal
}

// Option Group 配置选项
type Option func(*options)

func defaultOptions(opts []Option) *options {
	o := &options{name: "xrun"}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}
	if len(o.signals) == 0 {
		o.signals = DefaultSignals()
	}
	return o
}

// WithName 设置 Group 名称，用于日志。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger 设置日志记录器。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSignals 设置 Run 监听的信号，空列表表示使用 DefaultSignals。
func WithSignals(signals ...os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *options) {
		o.signals = copied
	}
}

// DefaultSignals 返回 SIGINT 与 SIGTERM。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

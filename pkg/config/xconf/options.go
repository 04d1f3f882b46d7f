package xconf

import "maps"

type options struct {
	delim     string
	tag       string
	envPrefix string
	defaults  map[string]any
}

// Option 配置加载选项
type Option func(*options)

func defaultOptions(opts []Option) *options {
	o := &options{delim: ".", tag: "koanf"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDelim 设置键路径分隔符，默认 "."。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置结构体标签名，默认 "koanf"。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// WithEnvPrefix 启用环境变量覆盖。
//
// 以 prefix 开头的变量去掉前缀、转小写，"__" 视为层级分隔：
// XSKY_REPORTER__QUEUE_SIZE=2048 覆盖 reporter.queue_size。
// 含逗号的值拆分为字符串切片。
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithDefaults 设置默认值，键为以分隔符连接的完整路径，优先级最低。
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		o.defaults = maps.Clone(defaults)
	}
}

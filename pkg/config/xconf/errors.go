package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")
	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	// ErrLoadFailed 读取配置源失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")
	// ErrParseFailed 配置内容解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")
	// ErrUnmarshalFailed 反序列化到结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")
	// ErrNotReloadable 配置不是从文件加载的，不能重载或监视。
	ErrNotReloadable = errors.New("xconf: config not loaded from file")
	// ErrNilConfig 配置为 nil。
	ErrNilConfig = errors.New("xconf: nil config")
)

package xconf

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config 分层配置：默认值 < 文件内容 < 环境变量。
//
// 设计决策: 每次加载都构建新的 koanf 实例并原子替换，
// 读取方拿到的始终是完整快照，Reload 失败时保留旧配置。
type Config struct {
	path   string
	format Format
	opts   *options

	k atomic.Pointer[koanf.Koanf]
	// reloadMu 串行化 Reload，避免较慢的旧读取覆盖较新的结果
	reloadMu sync.Mutex
}

// Load 从文件加载配置，格式由扩展名决定。
func Load(path string, opts ...Option) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	c := &Config{path: path, format: format, opts: defaultOptions(opts)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadBytes 从内存数据加载配置，空数据得到仅含默认值与环境变量的配置。
func LoadBytes(data []byte, format Format, opts ...Option) (*Config, error) {
	c := &Config{format: format, opts: defaultOptions(opts)}
	k, err := c.build(data)
	if err != nil {
		return nil, err
	}
	c.k.Store(k)
	return c, nil
}

// Reload 重新读取文件并替换快照。失败时旧快照保持不变。
func (c *Config) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := c.build(data)
	if err != nil {
		return err
	}
	c.k.Store(k)
	return nil
}

func (c *Config) build(data []byte) (*koanf.Koanf, error) {
	parser, err := c.format.parser()
	if err != nil {
		return nil, err
	}
	k := koanf.New(c.opts.delim)

	if len(c.opts.defaults) > 0 {
		if err := k.Load(confmap.Provider(c.opts.defaults, c.opts.delim), nil); err != nil {
			return nil, fmt.Errorf("%w: defaults: %w", ErrLoadFailed, err)
		}
	}
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}
	if c.opts.envPrefix != "" {
		if err := k.Load(env.ProviderWithValue(c.opts.envPrefix, c.opts.delim, c.envKey), nil); err != nil {
			return nil, fmt.Errorf("%w: env: %w", ErrLoadFailed, err)
		}
	}
	return k, nil
}

func (c *Config) envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, c.opts.envPrefix))
	key = strings.ReplaceAll(key, "__", c.opts.delim)
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

// Unmarshal 把 path 下的配置反序列化到 target，path 为空表示整个配置。
// 允许弱类型转换，例如字符串 "8080" 转为 int。
func (c *Config) Unmarshal(path string, target any) error {
	if err := c.k.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Koanf 返回当前快照。Reload 后旧快照仍可读但已过期，不要长期持有。
func (c *Config) Koanf() *koanf.Koanf { return c.k.Load() }

// Path 返回文件路径，LoadBytes 创建的配置返回空串。
func (c *Config) Path() string { return c.path }

// Format 返回配置格式。
func (c *Config) Format() Format { return c.format }

// Package xconf 基于 koanf 加载分层配置。
//
// 优先级从低到高：WithDefaults 提供的默认值、YAML/JSON 文件、
// WithEnvPrefix 启用的环境变量。
//
//	cfg, err := xconf.Load("/etc/xsky/agent.yaml",
//		xconf.WithEnvPrefix("XSKY_"),
//		xconf.WithDefaults(map[string]any{"reporter.queue_size": 1024}),
//	)
//	var ac AgentConfig
//	err = cfg.Unmarshal("", &ac)
//
// Watch 基于 fsnotify 监视文件变更，防抖后调用 Reload 并回调。
// Reload 失败不会替换当前快照。
package xconf

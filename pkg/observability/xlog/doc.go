// Package xlog 基于 log/slog 的结构化日志，供 xsky 各组件使用。
//
// # 创建 Logger
//
// Builder 模式，遇到第一个配置错误后后续 Set 被跳过，由 Build 返回：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetRotation("/var/log/xsky/agent.log").
//	    SetAttrs(slog.String("service", "producer")).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// 所有方法都要求 context.Context，签名只接受 slog.Attr。
//
// 本包不从 context 中提取追踪信息写入日志。追踪数据只经由 Reporter 上报，
// 与日志没有关联关系。
//
// # 全局 Logger
//
// [Default] 惰性创建（stderr、Info、text），[SetDefault] 替换，
// [Debug]/[Info]/[Warn]/[Error] 使用全局 Logger。库代码优先通过选项注入 Logger。
//
// # 级别
//
// Build 返回 [LoggerWithLevel]，可通过 SetLevel 在运行时调整级别，
// With 派生的 Logger 共享同一 LevelVar。
package xlog

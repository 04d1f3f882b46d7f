// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，ctx 优先
//   - xmetrics: Reporter 投递指标，基于 OpenTelemetry metric
//   - xrotate: 日志文件轮转
//
// 设计原则：
//   - 库代码只依赖 xlog.Logger 接口，输出目标由调用方决定
//   - 指标名遵循 OpenTelemetry 语义规范
//   - 日志级别支持运行时调整
package observability

// Package xmetrics 提供追踪上报管道的 OpenTelemetry 指标。
//
// [Recorder] 是 xreporter 依赖的最小接口；[NewOTelRecorder] 基于
// go.opentelemetry.io/otel/metric 实现，默认使用全局 MeterProvider。
// 未配置时使用 [Noop]。
//
// 指标：
//
//	xsky.reporter.submitted   Counter   入队成功的段数
//	xsky.reporter.dropped     Counter   因队列满或已关闭被拒绝的段数（reason 属性）
//	xsky.reporter.delivered   Counter   投递成功的段数（sink 属性）
//	xsky.reporter.failed      Counter   投递失败的段数（sink 属性）
//	xsky.reporter.spans       Counter   投递成功的 Span 数
//	xsky.reporter.duration    Histogram 单次投递耗时（秒）
//	xsky.reporter.queue.depth Gauge     当前队列长度
package xmetrics

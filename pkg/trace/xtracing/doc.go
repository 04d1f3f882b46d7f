// Package xtracing 实现单个进程内追踪段的生命周期：TracingContext 与 Span。
//
// # 模型
//
// 一个 [TracingContext] 对应一次请求（一个工作单元），产出一个 Segment：
//
//   - 最多一个入口 Span（[TracingContext.CreateEntrySpan]），ID 为 0，父 ID 为 -1
//   - 入口之后任意个出口 Span（[TracingContext.CreateExitSpan]），包裹对外调用
//   - Span ID 从 0 开始严格递增、无空洞，与 Span 类型和关闭顺序无关
//   - 只有经过 [TracingContext.FinalizeSpan] 的 Span 才会出现在 Segment 中，顺序即关闭顺序
//
// # 所有权
//
// 创建 Span 返回独占的 *Span，调用方直接修改它，最后交回 FinalizeSpan。
// 关闭后的 Span 冻结，任何修改都返回 [ErrSpanClosed]。
// TracingContext 与 Span 都不加锁：它们属于创建它们的那个请求，不能被并发修改。
//
// # 跨进程
//
// 收到上游 sw8 头时使用 [FromPropagation] 继续同一条链路，本地服务身份必须显式传入，
// 上游的服务名只用于构建入口 Span 的 Reference。对外调用前用
// [TracingContext.EncodePropagation] 生成新的 sw8 头。
//
// # 时间
//
// 时间来自注入的 [Clock]，精度为毫秒。github.com/jonboulle/clockwork 的真实时钟
// 与假时钟都满足该接口，测试中使用假时钟获得确定的时间戳。
package xtracing

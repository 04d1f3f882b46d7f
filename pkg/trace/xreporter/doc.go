// Package xreporter 将完成的追踪段异步投递到 Sink。
//
// Reporter 持有一个有界的多生产者单消费者队列：请求路径调用 Submit 入队，
// 唯一的 Run 协程按提交顺序取出并交给 Sink。
//
// # 队列满策略
//
//   - OverflowDrop（默认）：Submit 不阻塞，队列满时返回 ErrQueueFull 并计入丢弃
//   - OverflowBlock：Submit 阻塞直到有空位、ctx 结束或 Reporter 关闭
//
// # 投递失败
//
// 默认不重试。Sink 返回错误只结束本次投递，错误包装为 *DeliveryError 交给
// OnError 回调并记录日志，队列与后续提交不受影响。
// 需要重试或熔断时用 WithRetry / WithBreaker 装饰 Sink；
// 需要由上层监督者处理失败时使用 WithStopOnError，Run 会返回 *DeliveryError。
//
// # 关闭
//
// Close 停止接收新段，Run 把队列中剩余的段投递完后返回 nil。
package xreporter

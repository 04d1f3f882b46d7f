// Package xbreaker 基于 [sony/gobreaker/v2] 提供熔断器。
//
// 连续失败达到阈值后熔断器打开，Timeout 内的调用直接返回 BreakerError 而不执行操作；
// 超时后进入半开状态放行有限请求探测下游。
// BreakerError 声明自身不可重试，与 xretry 组合时不会在熔断期间空转退避。
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xbreaker

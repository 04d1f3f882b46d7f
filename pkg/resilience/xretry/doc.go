// Package xretry 提供基于 [avast/retry-go/v5] 的重试执行器。
//
// Retryer 组合最大尝试次数与 Backoff 退避策略，用于包装投递等可能瞬时失败的操作。
// 用 Permanent 包装的错误会立即终止重试。
//
//	r := xretry.NewRetryer(
//	    xretry.WithAttempts(5),
//	    xretry.WithBackoff(xretry.NewExponentialBackoff()),
//	)
//	err := r.Do(ctx, func(ctx context.Context) error {
//	    return sink.Send(ctx, seg)
//	})
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry

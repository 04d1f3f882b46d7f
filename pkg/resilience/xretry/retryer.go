package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Retryer 重试执行器，零值不可用，使用 NewRetryer 创建。
// Retryer 创建后只读，可并发调用 Do。
type Retryer struct {
	attempts uint
	backoff  Backoff
	retryIf  func(error) bool
	onRetry  func(attempt int, err error)
}

// Option Retryer 配置选项
type Option func(*Retryer)

// WithAttempts 设置最大尝试次数（包含首次）。n < 1 按 1 处理。
func WithAttempts(n int) Option {
	return func(r *Retryer) {
		r.attempts = uint(max(n, 1))
	}
}

// WithBackoff 设置退避策略，nil 被忽略。
func WithBackoff(b Backoff) Option {
	return func(r *Retryer) {
		if b != nil {
			r.backoff = b
		}
	}
}

// WithRetryIf 追加重试条件。永久性错误总是不重试，f 只在其余错误上被询问。
func WithRetryIf(f func(error) bool) Option {
	return func(r *Retryer) {
		if f != nil {
			r.retryIf = f
		}
	}
}

// WithOnRetry 设置每次失败后、等待前的回调，attempt 从 1 开始。
func WithOnRetry(f func(attempt int, err error)) Option {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 创建重试执行器。默认 3 次尝试、指数退避。
func NewRetryer(opts ...Option) *Retryer {
	r := &Retryer{
		attempts: 3,
		backoff:  NewExponentialBackoff(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attempts 返回最大尝试次数。
func (r *Retryer) Attempts() int {
	if r == nil {
		return 0
	}
	return int(min(r.attempts, uint(math.MaxInt)))
}

// Do 执行 fn，失败时按退避策略重试，直到成功、次数耗尽、遇到永久性错误或 ctx 结束。
// 返回最后一次的错误；PermanentError 原样返回，调用方可用 errors.As 取出。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return ErrNilRetryer
	}
	if fn == nil {
		return ErrNilFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return retry.New(r.options(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

func (r *Retryer) options(ctx context.Context) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if IsPermanent(err) {
				return false
			}
			if r.retryIf != nil {
				return r.retryIf(err)
			}
			return true
		}),
		// retry-go v5 中 n 从 1 开始，与 Backoff 一致
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return r.backoff.NextDelay(int(min(n, uint(math.MaxInt))))
		}),
	}
	if r.onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			// OnRetry 的 n 从 0 开始
			r.onRetry(int(min(n, uint(math.MaxInt-1)))+1, err)
		}))
	}
	return opts
}

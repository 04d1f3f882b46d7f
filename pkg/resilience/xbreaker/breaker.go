package xbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State 熔断器状态
type State = gobreaker.State

// Counts 统计计数
type Counts = gobreaker.Counts

// 熔断器状态常量
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Breaker 熔断器执行器，可并发使用。
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

type options struct {
	failures      uint32
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	isSuccessful  func(error) bool
	onStateChange func(name string, from, to State)
}

// Option 熔断器配置选项
type Option func(*options)

// WithConsecutiveFailures 设置触发熔断的连续失败次数，默认 5。
func WithConsecutiveFailures(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.failures = n
		}
	}
}

// WithTimeout 设置 Open 到 HalfOpen 的等待时间，默认 30s。
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithInterval 设置 Closed 状态下清空计数的周期，0 表示不清空。
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.interval = d
		}
	}
}

// WithMaxRequests 设置 HalfOpen 状态下放行的请求数，默认 1。
func WithMaxRequests(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRequests = n
		}
	}
}

// WithIsSuccessful 自定义成功判定。
// 例如调用方取消（context.Canceled）不应计为下游失败。
func WithIsSuccessful(f func(error) bool) Option {
	return func(o *options) {
		o.isSuccessful = f
	}
}

// WithOnStateChange 设置状态变化回调，回调在 gobreaker 锁内执行，不应阻塞。
func WithOnStateChange(f func(name string, from, to State)) Option {
	return func(o *options) {
		o.onStateChange = f
	}
}

// NewBreaker 创建熔断器，name 用于错误信息与状态回调。
func NewBreaker(name string, opts ...Option) *Breaker {
	o := options{
		failures:    5,
		timeout:     30 * time.Second,
		maxRequests: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: o.maxRequests,
		Interval:    o.interval,
		Timeout:     o.timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= o.failures
		},
		IsSuccessful:  o.isSuccessful,
		OnStateChange: o.onStateChange,
	}
	return &Breaker{
		name: name,
		cb:   gobreaker.NewCircuitBreaker[struct{}](st),
	}
}

// Do 在熔断器保护下执行 fn。
// ctx 已结束时直接返回 ctx 错误且不计数；熔断拒绝时返回 *BreakerError。
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if b == nil {
		return ErrNilBreaker
	}
	if fn == nil {
		return ErrNilFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return wrapError(err, b.name)
}

// Name 返回熔断器名称。
func (b *Breaker) Name() string { return b.name }

// State 返回当前状态。
func (b *Breaker) State() State { return b.cb.State() }

// Counts 返回当前计数。
func (b *Breaker) Counts() Counts { return b.cb.Counts() }

package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrNilBreaker 在 nil 接收者上调用 Do。
	ErrNilBreaker = errors.New("xbreaker: nil breaker")
	// ErrNilFunc 待执行函数为 nil。
	ErrNilFunc = errors.New("xbreaker: nil func")
)

// BreakerError 熔断拒绝错误，包装 gobreaker.ErrOpenState 或 gobreaker.ErrTooManyRequests。
type BreakerError struct {
	Err   error
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("xbreaker: %s: %v", e.Name, e.Err)
	}
	return "xbreaker: " + e.Err.Error()
}

func (e *BreakerError) Unwrap() error {
	return e.Err
}

// Retryable 熔断拒绝不应重试。
func (e *BreakerError) Retryable() bool {
	return false
}

// wrapError 只包装 gobreaker 直接返回的哨兵错误，业务错误原样返回。
// 状态由错误推导，避免 Execute 返回后再查询 State 产生竞态。
func wrapError(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case err == gobreaker.ErrOpenState: //nolint:errorlint // 仅匹配直接返回值，避免误包装嵌套熔断器的错误
		return &BreakerError{Err: err, Name: name, State: gobreaker.StateOpen}
	case err == gobreaker.ErrTooManyRequests: //nolint:errorlint // 同上
		return &BreakerError{Err: err, Name: name, State: gobreaker.StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 判断 err 是否为熔断器打开导致的拒绝。
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsRejected 判断 err 是否为熔断器拒绝（打开或半开请求过多）。
func IsRejected(err error) bool {
	var be *BreakerError
	return errors.As(err, &be)
}

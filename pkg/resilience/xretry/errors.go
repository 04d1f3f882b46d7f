package xretry

import (
	"errors"

	retry "github.com/avast/retry-go/v5"
)

var (
	// ErrNilRetryer 在 nil 接收者上调用 Do 时返回。
	ErrNilRetryer = errors.New("xretry: nil retryer")
	// ErrNilFunc 待执行函数为 nil。
	ErrNilFunc = errors.New("xretry: nil func")
)

// RetryableError 自行声明是否可重试的错误。
// 其他包的错误类型（如熔断器错误）实现此接口即可被 Retryer 识别，无需依赖本包。
type RetryableError interface {
	error
	Retryable() bool
}

// PermanentError 永久性错误，Retryer 遇到后不再重试。
type PermanentError struct {
	Err error
}

// Permanent 将 err 标记为不可重试。err 为 nil 时返回 nil。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Retryable 实现 RetryableError。
func (e *PermanentError) Retryable() bool {
	return false
}

// IsPermanent 判断 err 是否不应重试。
// 错误链上首个 RetryableError 决定结果；retry-go 的 Unrecoverable 标记也视为永久性错误。
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return !re.Retryable()
	}
	return !retry.IsRecoverable(err)
}

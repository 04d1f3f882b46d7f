package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 因收到系统信号而退出，SignalError 满足 errors.Is(err, ErrSignal)。
	ErrSignal = errors.New("xrun: received signal")
	// ErrNilFunc 任务函数为 nil。
	ErrNilFunc = errors.New("xrun: nil func")
	// ErrNilServer 服务器为 nil。
	ErrNilServer = errors.New("xrun: nil server")
	// ErrInvalidInterval Ticker 间隔必须为正数。
	ErrInvalidInterval = errors.New("xrun: interval must be positive")
)

// SignalError 记录触发退出的信号。
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("xrun: received signal %v", e.Signal)
}

func (e *SignalError) Unwrap() error { return ErrSignal }

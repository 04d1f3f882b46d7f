package xreporter

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSink New 的 sink 参数为 nil。
	ErrNilSink = errors.New("xreporter: nil sink")
	// ErrQueueFull 队列已满，段被丢弃（OverflowDrop）。
	ErrQueueFull = errors.New("xreporter: queue is full")
	// ErrClosed Reporter 已关闭。
	ErrClosed = errors.New("xreporter: reporter is closed")
	// ErrAlreadyRunning 已有 Run 在消费队列。
	ErrAlreadyRunning = errors.New("xreporter: already running")
	// ErrInvalidQueueSize 队列容量无效。
	ErrInvalidQueueSize = errors.New("xreporter: invalid queue size")
	// ErrInvalidOverflowPolicy 未知的队列满策略。
	ErrInvalidOverflowPolicy = errors.New("xreporter: invalid overflow policy")
	// ErrSinkPanic Sink 发生 panic，已被恢复。
	ErrSinkPanic = errors.New("xreporter: sink panicked")
)

// DeliveryError 一次投递失败。Count > 1 表示批量投递，SegmentID 为批次中第一个段。
type DeliveryError struct {
	Sink      string
	SegmentID string
	Count     int
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("xreporter: deliver %d segments (first %s) to %s: %v", e.Count, e.SegmentID, e.Sink, e.Err)
	}
	return fmt.Sprintf("xreporter: deliver segment %s to %s: %v", e.SegmentID, e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

package xmetrics

import (
	"context"
	"time"
)

// 丢弃原因
const (
	ReasonQueueFull = "queue_full"
	ReasonClosed    = "closed"
	ReasonCanceled  = "canceled"
)

// Recorder 记录上报管道事件。实现必须并发安全。
type Recorder interface {
	Submitted(ctx context.Context)
	Dropped(ctx context.Context, reason string)
	Delivered(ctx context.Context, sink string, spans int, elapsed time.Duration)
	Failed(ctx context.Context, sink string, elapsed time.Duration)
}

// Noop 不记录任何指标。
type Noop struct{}

func (Noop) Submitted(context.Context)                             {}
func (Noop) Dropped(context.Context, string)                       {}
func (Noop) Delivered(context.Context, string, int, time.Duration) {}
func (Noop) Failed(context.Context, string, time.Duration)         {}

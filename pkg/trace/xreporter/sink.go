package xreporter

import (
	"context"

	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

// Sink 段的投递目标。Reporter 保证对同一个 Sink 串行调用。
type Sink interface {
	Send(ctx context.Context, seg xsegment.Segment) error
}

// StreamSink 可在一次流中投递多个段的 Sink。
// 配置 WithMaxBatch 后 Reporter 会把已在队列中的段合并为一批。
type StreamSink interface {
	Sink
	SendBatch(ctx context.Context, segs []xsegment.Segment) error
}

// SinkFunc 函数适配器。
type SinkFunc func(ctx context.Context, seg xsegment.Segment) error

// Send 实现 Sink。
func (f SinkFunc) Send(ctx context.Context, seg xsegment.Segment) error {
	return f(ctx, seg)
}

// namer 可选接口，提供用于日志与指标的 Sink 名称。
type namer interface {
	Name() string
}

// SinkName 返回 sink 的名称，未实现 Name() 时返回 "sink"。
func SinkName(s Sink) string {
	if n, ok := s.(namer); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return "sink"
}

// sendBatch 优先使用 StreamSink，否则逐个 Send，遇错即停。
func sendBatch(ctx context.Context, s Sink, segs []xsegment.Segment) error {
	if len(segs) == 1 {
		return s.Send(ctx, segs[0])
	}
	if ss, ok := s.(StreamSink); ok {
		return ss.SendBatch(ctx, segs)
	}
	for _, seg := range segs {
		if err := s.Send(ctx, seg); err != nil {
			return err
		}
	}
	return nil
}

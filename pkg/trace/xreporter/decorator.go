package xreporter

import (
	"context"

	"github.com/omeyang/xsky/pkg/resilience/xbreaker"
	"github.com/omeyang/xsky/pkg/resilience/xretry"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

// WithRetry 返回在 r 控制下重试投递的 Sink。r 为 nil 时原样返回 sink。
//
// 批量投递整体重试，StreamSink 的一次流失败会重发整批，下游需容忍重复段。
func WithRetry(sink Sink, r *xretry.Retryer) Sink {
	if sink == nil || r == nil {
		return sink
	}
	return &retrySink{next: sink, retryer: r}
}

type retrySink struct {
	next    Sink
	retryer *xretry.Retryer
}

func (s *retrySink) Name() string { return SinkName(s.next) }

func (s *retrySink) Send(ctx context.Context, seg xsegment.Segment) error {
	return s.retryer.Do(ctx, func(ctx context.Context) error {
		return s.next.Send(ctx, seg)
	})
}

func (s *retrySink) SendBatch(ctx context.Context, segs []xsegment.Segment) error {
	return s.retryer.Do(ctx, func(ctx context.Context) error {
		return sendBatch(ctx, s.next, segs)
	})
}

// WithBreaker 返回受熔断器保护的 Sink。b 为 nil 时原样返回 sink。
// 熔断打开期间投递直接失败，错误可用 xbreaker.IsOpen 识别。
//
// 与 WithRetry 组合时，WithRetry(WithBreaker(sink, b), r) 让每次尝试都经过熔断判定，
// 熔断拒绝不会被重试。
func WithBreaker(sink Sink, b *xbreaker.Breaker) Sink {
	if sink == nil || b == nil {
		return sink
	}
	return &breakerSink{next: sink, breaker: b}
}

type breakerSink struct {
	next    Sink
	breaker *xbreaker.Breaker
}

func (s *breakerSink) Name() string { return SinkName(s.next) }

func (s *breakerSink) Send(ctx context.Context, seg xsegment.Segment) error {
	return s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.next.Send(ctx, seg)
	})
}

func (s *breakerSink) SendBatch(ctx context.Context, segs []xsegment.Segment) error {
	return s.breaker.Do(ctx, func(ctx context.Context) error {
		return sendBatch(ctx, s.next, segs)
	})
}

var (
	_ StreamSink = (*retrySink)(nil)
	_ StreamSink = (*breakerSink)(nil)
)

package xtracing

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/omeyang/xsky/pkg/trace/xsegment"
	"github.com/omeyang/xsky/pkg/trace/xsw8"
	"github.com/omeyang/xsky/pkg/util/xid"
)

// Clock 时间来源。clockwork.Clock 满足此接口。
type Clock interface {
	Now() time.Time
}

// =============================================================================
// 选项
// =============================================================================

type options struct {
	ids xid.Generator
}

// Option 配置 TracingContext。
type Option func(*options)

// WithIDGenerator 设置 TraceId / SegmentId 生成器，默认 UUID。
func WithIDGenerator(g xid.Generator) Option {
	return func(o *options) {
		if g != nil {
			o.ids = g
		}
	}
}

// =============================================================================
// TracingContext
// =============================================================================

// TracingContext 一次请求的追踪状态，产出一个 Segment。
//
// 单一所有者，不可并发使用。
type TracingContext struct {
	clock     Clock
	traceID   string
	segmentID string
	service   string
	instance  string
	sampled   bool

	nextSpanID int32
	// spans 已关闭的 Span，按关闭顺序
	spans []xsegment.Span
	// link 上游传播上下文，仅 FromPropagation 设置
	link *xsw8.Context
}

// New 开启一条新链路：生成新的 TraceId 与 SegmentId，默认采样。
//
// clock 为 nil 时使用真实时钟。
func New(clock Clock, service, instance string, opts ...Option) *TracingContext {
	o := applyOptions(opts)
	return &TracingContext{
		clock:     orRealClock(clock),
		traceID:   o.ids.NewID(),
		segmentID: o.ids.NewID(),
		service:   service,
		instance:  instance,
		sampled:   true,
	}
}

// FromPropagation 继续上游链路：TraceId 与采样标志继承自 pc，SegmentId 重新生成。
//
// service / instance 是本进程的身份，pc 中的上游服务名只进入入口 Span 的 Reference。
func FromPropagation(clock Clock, service, instance string, pc xsw8.Context, opts ...Option) *TracingContext {
	o := applyOptions(opts)
	link := pc
	return &TracingContext{
		clock:     orRealClock(clock),
		traceID:   pc.ParentTraceID,
		segmentID: o.ids.NewID(),
		service:   service,
		instance:  instance,
		sampled:   pc.Sample,
		link:      &link,
	}
}

func applyOptions(opts []Option) *options {
	o := &options{ids: xid.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func orRealClock(c Clock) Clock {
	if c == nil {
		return clockwork.NewRealClock()
	}
	return c
}

// TraceID 返回链路 ID。
func (tc *TracingContext) TraceID() string { return tc.traceID }

// SegmentID 返回本段 ID。
func (tc *TracingContext) SegmentID() string { return tc.segmentID }

// Service 返回本地服务名。
func (tc *TracingContext) Service() string { return tc.service }

// ServiceInstance 返回本地实例名。
func (tc *TracingContext) ServiceInstance() string { return tc.instance }

// Sampled 报告本链路是否采样。
func (tc *TracingContext) Sampled() bool { return tc.sampled }

// Propagation 返回上游传播上下文；ok 为 false 表示这是新链路。
func (tc *TracingContext) Propagation() (pc xsw8.Context, ok bool) {
	if tc.link == nil {
		return xsw8.Context{}, false
	}
	return *tc.link, true
}

// FinishedSpans 返回已关闭 Span 的数量。
func (tc *TracingContext) FinishedSpans() int { return len(tc.spans) }

func (tc *TracingContext) now() int64 { return tc.clock.Now().UnixMilli() }

// =============================================================================
// Span 生命周期
// =============================================================================

// CreateEntrySpan 创建入口 Span（ID 0，父 ID -1）。每个 TracingContext 只能创建一次。
//
// 如果上下文来自上游，入口 Span 携带一个跨进程 Reference。
func (tc *TracingContext) CreateEntrySpan(operationName string) (*Span, error) {
	if tc.nextSpanID >= 1 {
		return nil, ErrDuplicateEntrySpan
	}
	s := newSpan(tc, tc.allocID(), operationName, "", xsegment.SpanTypeEntry)
	if tc.link != nil {
		s.rec.Refs = []xsegment.Reference{{
			Type:                     xsegment.RefTypeCrossProcess,
			TraceID:                  tc.traceID,
			ParentSegmentID:          tc.link.ParentSegmentID,
			ParentSpanID:             int32(tc.link.ParentSpanID),
			ParentService:            tc.link.ParentService,
			ParentServiceInstance:    tc.link.ParentServiceInstance,
			ParentEndpoint:           tc.link.DestinationEndpoint,
			NetworkAddressUsedAtPeer: tc.link.DestinationAddress,
		}}
	}
	return s, nil
}

// CreateExitSpan 创建出口 Span。必须在入口 Span 之后调用，remotePeer 不能为空。
func (tc *TracingContext) CreateExitSpan(operationName, remotePeer string) (*Span, error) {
	if tc.nextSpanID == 0 {
		return nil, ErrMissingEntrySpan
	}
	if remotePeer == "" {
		return nil, ErrEmptyPeer
	}
	return newSpan(tc, tc.allocID(), operationName, remotePeer, xsegment.SpanTypeExit), nil
}

// FinalizeSpan 关闭 Span 并加入本段。Span 只能关闭一次，且必须由创建它的上下文关闭。
//
// 未调用 FinalizeSpan 的 Span 不会出现在 Segment 中，调用方应在所有返回路径上关闭。
func (tc *TracingContext) FinalizeSpan(s *Span) error {
	switch {
	case s == nil:
		return ErrNilSpan
	case s.owner != tc:
		return ErrForeignSpan
	case s.closed:
		return ErrSpanClosed
	}
	// 时钟回拨时结束时间不早于开始时间
	s.close(max(tc.now(), s.rec.StartTime))
	tc.spans = append(tc.spans, s.rec.Clone())
	return nil
}

func (tc *TracingContext) allocID() int32 {
	id := tc.nextSpanID
	tc.nextSpanID++
	return id
}

// =============================================================================
// 组装与传播
// =============================================================================

// SegmentObject 组装当前已关闭的 Span 为 Segment。无副作用，可多次调用。
func (tc *TracingContext) SegmentObject() xsegment.Segment {
	seg := xsegment.Segment{
		TraceID:         tc.traceID,
		SegmentID:       tc.segmentID,
		Service:         tc.service,
		ServiceInstance: tc.instance,
		Spans:           make([]xsegment.Span, len(tc.spans)),
	}
	for i := range tc.spans {
		seg.Spans[i] = tc.spans[i].Clone()
	}
	return seg
}

// EncodePropagation 为一次对外调用生成 sw8 头。
//
// 父 Span ID 取最近分配的 Span ID，即发起本次调用的出口 Span，
// 因此应在 CreateExitSpan 之后调用。
func (tc *TracingContext) EncodePropagation(endpoint, address string) (string, error) {
	if tc.nextSpanID == 0 {
		return "", fmt.Errorf("encode propagation: %w", ErrMissingEntrySpan)
	}
	return xsw8.Encode(xsw8.Context{
		Sample:                tc.sampled,
		ParentTraceID:         tc.traceID,
		ParentSegmentID:       tc.segmentID,
		ParentSpanID:          uint32(tc.nextSpanID - 1),
		ParentService:         tc.service,
		ParentServiceInstance: tc.instance,
		DestinationEndpoint:   endpoint,
		DestinationAddress:    address,
	}), nil
}

// =============================================================================
// context.Context 携带
// =============================================================================

type contextKey struct{}

// NewContext 将 TracingContext 放入 ctx。
func NewContext(ctx context.Context, tc *TracingContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext 从 ctx 取出 TracingContext。
func FromContext(ctx context.Context) (*TracingContext, bool) {
	if ctx == nil {
		return nil, false
	}
	tc, ok := ctx.Value(contextKey{}).(*TracingContext)
	return tc, ok && tc != nil
}

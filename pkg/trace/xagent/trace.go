package xagent

import (
	"context"
	"log/slog"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
	"github.com/omeyang/xsky/pkg/trace/xsw8"
	"github.com/omeyang/xsky/pkg/trace/xtracing"
)

// 组件 ID，取自 SkyWalking component-libraries 定义。
const (
	ComponentHTTPServer int32 = 5004
	ComponentHTTPClient int32 = 5005
	ComponentGRPC       int32 = 23
)

// Span 标签键
const (
	TagHTTPMethod     = "http.method"
	TagURL            = "url"
	TagStatusCode     = "status_code"
	TagRPCMethod      = "rpc.method"
	TagRPCStatusCode  = "rpc.status_code"
	logKeyEvent       = "event"
	logKeyMessage     = "message"
	logEventError     = "error"
	logEventPanic     = "panic"
	unknownPeerMarker = "unknown"
)

// NewContext 开启一条新链路。
func (a *Agent) NewContext() *xtracing.TracingContext {
	return xtracing.New(a.clock, a.service, a.instance, xtracing.WithIDGenerator(a.ids))
}

// ContinueContext 按 sw8 头继续上游链路。
// 头为空时开启新链路；头损坏时记录告警并开启不关联上游的新链路，请求照常处理。
func (a *Agent) ContinueContext(ctx context.Context, header string) *xtracing.TracingContext {
	if header == "" {
		return a.NewContext()
	}
	pc, err := xsw8.Decode(header)
	return a.continueFrom(ctx, pc, true, err)
}

func (a *Agent) continueFrom(ctx context.Context, pc xsw8.Context, ok bool, err error) *xtracing.TracingContext {
	switch {
	case err != nil:
		a.logger.Warn(ctx, "xagent: invalid sw8 header, starting new trace", xlog.Err(err))
		return a.NewContext()
	case !ok:
		return a.NewContext()
	default:
		return xtracing.FromPropagation(a.clock, a.service, a.instance, pc, xtracing.WithIDGenerator(a.ids))
	}
}

// Submit 组装已关闭的 Span 并提交给 Reporter。没有已关闭 Span 时不提交。
func (a *Agent) Submit(ctx context.Context, tc *xtracing.TracingContext) error {
	if tc == nil || tc.FinishedSpans() == 0 {
		return nil
	}
	return a.reporter.Submit(ctx, tc.SegmentObject())
}

// finish 关闭 Span 并提交整个段，用于入口 Span 结束时。错误只记录日志，不影响请求。
func (a *Agent) finish(ctx context.Context, tc *xtracing.TracingContext, span *xtracing.Span) {
	if err := tc.FinalizeSpan(span); err != nil {
		a.logger.Warn(ctx, "xagent: finalize entry span failed", xlog.Err(err))
	}
	if err := a.Submit(ctx, tc); err != nil {
		a.logger.Debug(ctx, "xagent: submit segment failed",
			xlog.SegmentID(tc.SegmentID()), xlog.Err(err))
	}
}

// closeExit 关闭出口 Span，失败只记录日志。
func (a *Agent) closeExit(ctx context.Context, tc *xtracing.TracingContext, span *xtracing.Span) {
	if err := tc.FinalizeSpan(span); err != nil {
		a.logger.Warn(ctx, "xagent: finalize exit span failed", slog.String("operation", span.OperationName()), xlog.Err(err))
	}
}

func markError(span *xtracing.Span, event string, err error) {
	_ = span.SetError(true)
	_ = span.AddLog(
		xsegment.KeyValue{Key: logKeyEvent, Value: event},
		xsegment.KeyValue{Key: logKeyMessage, Value: err.Error()},
	)
}

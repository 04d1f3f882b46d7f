package xagent

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
	"github.com/omeyang/xsky/pkg/trace/xsw8"
	"github.com/omeyang/xsky/pkg/trace/xtracing"
)

// UnaryServerInterceptor 为每个一元调用创建入口 Span，名称为完整方法名。
// 规则同 HTTPMiddleware：返回非 OK 状态时标记错误。
func (a *Agent) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		pc, ok, decodeErr := xsw8.ExtractFromIncomingContext(ctx)
		tc := a.continueFrom(ctx, pc, ok, decodeErr)

		span, spanErr := tc.CreateEntrySpan(info.FullMethod)
		if spanErr != nil {
			a.logger.Warn(ctx, "xagent: create entry span failed", xlog.Err(spanErr))
			return handler(ctx, req)
		}
		_ = span.SetLayer(xsegment.SpanLayerRPCFramework)
		_ = span.SetComponentID(ComponentGRPC)
		_ = span.AddTag(TagRPCMethod, info.FullMethod)

		defer func() {
			p := recover()
			if p != nil {
				markError(span, logEventPanic, status.Errorf(codes.Internal, "panic: %v", p))
			} else {
				recordStatus(span, err)
			}
			a.finish(ctx, tc, span)
			if p != nil {
				panic(p)
			}
		}()
		return handler(xtracing.NewContext(ctx, tc), req)
	}
}

// UnaryClientInterceptor 为出站一元调用创建出口 Span 并写入 sw8 metadata，
// 对端地址取 ClientConn 的 target。ctx 中没有 TracingContext 时直接透传。
func (a *Agent) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		tc, ok := xtracing.FromContext(ctx)
		if !ok {
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		peer := unknownPeerMarker
		if cc != nil && cc.Target() != "" {
			peer = cc.Target()
		}
		span, err := tc.CreateExitSpan(method, peer)
		if err != nil {
			a.logger.Debug(ctx, "xagent: skip exit span", xlog.Err(err))
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		_ = span.SetLayer(xsegment.SpanLayerRPCFramework)
		_ = span.SetComponentID(ComponentGRPC)
		_ = span.AddTag(TagRPCMethod, method)
		defer a.closeExit(ctx, tc, span)

		if header, err := tc.EncodePropagation(method, peer); err == nil {
			ctx = xsw8.InjectToOutgoingContext(ctx, header)
		}
		err = invoker(ctx, method, req, reply, cc, opts...)
		recordStatus(span, err)
		return err
	}
}

func recordStatus(span *xtracing.Span, err error) {
	st := status.Convert(err)
	_ = span.AddTag(TagRPCStatusCode, st.Code().String())
	if err != nil {
		markError(span, logEventError, err)
	}
}

package xcollector

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

// ErrNilHandler NewServer 的 handler 为 nil。
var ErrNilHandler = errors.New("xcollector: nil handler")

// Handler 处理收到的段。返回错误会以 codes.Internal 结束当前流。
type Handler func(ctx context.Context, seg xsegment.Segment) error

// TraceSegmentReportServer collect 服务实现。
type TraceSegmentReportServer interface {
	Collect(stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TraceSegmentReportServer)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    "collect",
		Handler:       collectHandler,
		ClientStreams: true,
	}},
	Metadata: "language-agent/Tracing.proto",
}

func collectHandler(srv any, stream grpc.ServerStream) error {
	return srv.(TraceSegmentReportServer).Collect(stream)
}

// ServerCodec 返回 collect 服务需要的 grpc.ServerOption。
// 该编解码器只认识段与 Commands，承载其他服务的 *grpc.Server 不应使用。
func ServerCodec() grpc.ServerOption {
	return grpc.ForceServerCodec(codec{})
}

// Server 收集器服务端。
type Server struct {
	handler  Handler
	logger   xlog.Logger
	received atomic.Uint64
}

// ServerOption 服务端配置选项
type ServerOption func(*Server)

// WithServerLogger 设置服务端日志记录器。
func WithServerLogger(l xlog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer 创建服务端。
func NewServer(handler Handler, opts ...ServerOption) (*Server, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &Server{handler: handler}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = xlog.Default()
	}
	s.logger = s.logger.With(xlog.Component("xcollector"))
	return s, nil
}

// Register 在 reg 上注册 collect 服务。
func (s *Server) Register(reg grpc.ServiceRegistrar) {
	reg.RegisterService(&serviceDesc, s)
}

// Received 返回已处理的段数。
func (s *Server) Received() uint64 {
	return s.received.Load()
}

// Collect 读取客户端流直到结束，逐个交给 Handler，最后回复空 Commands。
func (s *Server) Collect(stream grpc.ServerStream) error {
	ctx := stream.Context()
	for {
		var seg xsegment.Segment
		err := stream.RecvMsg(&seg)
		if errors.Is(err, io.EOF) {
			return stream.SendMsg(&Commands{})
		}
		if err != nil {
			return err
		}
		if err := s.handler(ctx, seg); err != nil {
			s.logger.Warn(ctx, "xcollector: handler failed", xlog.SegmentID(seg.SegmentID), xlog.Err(err))
			return status.Errorf(codes.Internal, "xcollector: handle segment %s: %v", seg.SegmentID, err)
		}
		s.received.Add(1)
	}
}

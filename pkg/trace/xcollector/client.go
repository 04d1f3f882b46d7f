package xcollector

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

var (
	// ErrEmptyTarget Dial 的地址为空。
	ErrEmptyTarget = errors.New("xcollector: empty target")
	// ErrClientClosed 客户端已关闭。
	ErrClientClosed = errors.New("xcollector: client is closed")
)

var collectStreamDesc = grpc.StreamDesc{
	StreamName:    "collect",
	ClientStreams: true,
}

// Client 收集器客户端，可并发使用。
type Client struct {
	conn      *grpc.ClientConn
	target    string
	logger    xlog.Logger
	onCommand func(context.Context, Commands)
}

type clientOptions struct {
	creds       credentials.TransportCredentials
	dialOptions []grpc.DialOption
	logger      xlog.Logger
	onCommand   func(context.Context, Commands)
}

// Option 客户端配置选项
type Option func(*clientOptions)

// WithTransportCredentials 设置传输凭证，默认明文。
func WithTransportCredentials(c credentials.TransportCredentials) Option {
	return func(o *clientOptions) {
		if c != nil {
			o.creds = c
		}
	}
}

// WithDialOptions 追加 grpc.DialOption。
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *clientOptions) {
		o.dialOptions = append(o.dialOptions, opts...)
	}
}

// WithLogger 设置日志记录器，默认 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCommandHandler 设置收集器响应的处理函数，仅在响应包含指令时调用。
func WithCommandHandler(f func(context.Context, Commands)) Option {
	return func(o *clientOptions) {
		o.onCommand = f
	}
}

// Dial 创建客户端。连接是惰性的，首次发送时才建立。
func Dial(target string, opts ...Option) (*Client, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	o := &clientOptions{creds: insecure.NewCredentials()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(o.creds)}, o.dialOptions...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("xcollector: dial %s: %w", target, err)
	}
	return &Client{
		conn:      conn,
		target:    target,
		logger:    o.logger.With(xlog.Component("xcollector"), xlog.Address(target)),
		onCommand: o.onCommand,
	}, nil
}

// Name 用于日志与指标。
func (c *Client) Name() string { return "grpc" }

// Target 返回收集器地址。
func (c *Client) Target() string { return c.target }

// Send 在一条 collect 流中发送单个段。
func (c *Client) Send(ctx context.Context, seg xsegment.Segment) error {
	return c.SendBatch(ctx, []xsegment.Segment{seg})
}

// SendBatch 在一条 collect 流中按顺序发送 segs，流正常结束才返回 nil。
func (c *Client) SendBatch(ctx context.Context, segs []xsegment.Segment) error {
	if len(segs) == 0 {
		return nil
	}
	stream, err := c.conn.NewStream(ctx, &collectStreamDesc, CollectMethod, grpc.ForceCodec(codec{}))
	if err != nil {
		return fmt.Errorf("xcollector: open stream: %w", err)
	}

	for i := range segs {
		if err := stream.SendMsg(&segs[i]); err != nil {
			// io.EOF 表示服务端已结束流，真实状态由 RecvMsg 给出
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("xcollector: send segment %s: %w", segs[i].SegmentID, err)
		}
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("xcollector: close send: %w", err)
	}

	var cmds Commands
	if err := stream.RecvMsg(&cmds); err != nil {
		return fmt.Errorf("xcollector: collect: %w", err)
	}
	if len(cmds.Commands) > 0 {
		c.logger.Debug(ctx, "xcollector: commands received", xlog.Count(int64(len(cmds.Commands))))
		if c.onCommand != nil {
			c.onCommand(ctx, cmds)
		}
	}
	return nil
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("xcollector: close: %w", err)
	}
	return nil
}

package xrun

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

func TestGroup_Wait(t *testing.T) {
	boom := errors.New("boom")
	stop := errors.New("stop requested")

	tests := []struct {
		name string
		run  func(g *Group)
		want error
	}{
		{
			name: "全部正常结束",
			run: func(g *Group) {
				g.Go("a", func(context.Context) error { return nil })
			},
		},
		{
			name: "任一失败取消其余",
			run: func(g *Group) {
				g.Go("fail", func(context.Context) error { return boom })
				g.Go("wait", func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				})
			},
			want: boom,
		},
		{
			name: "显式原因优先于取消",
			run: func(g *Group) {
				g.Go("wait", func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				})
				g.Cancel(stop)
			},
			want: stop,
		},
		{
			name: "任务返回 nil 仍保留原因",
			run: func(g *Group) {
				g.Go("wait", func(ctx context.Context) error {
					<-ctx.Done()
					return nil
				})
				g.Cancel(stop)
			},
			want: stop,
		},
		{
			name: "普通取消返回 nil",
			run: func(g *Group) {
				g.Go("wait", func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				})
				g.Cancel(nil)
			},
		},
		{
			name: "nil 函数",
			run: func(g *Group) {
				g.Go("nil", nil)
			},
			want: ErrNilFunc,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := NewGroup(context.Background(), WithName("test"))
			tt.run(g)
			err := g.Wait()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestGroup_InternalCanceled(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go("inner", func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, g.Wait(), context.Canceled)
}

func TestGroup_NilContext(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 归一化
	g, ctx := NewGroup(nil)
	require.NotNil(t, ctx)
	assert.Equal(t, ctx, g.Context())
	assert.NoError(t, g.Wait())
}

func TestRun_Signal(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	var stopped atomic.Bool

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(context.Background(), []Option{func(o *options) { o.sigSource = sigs }}, func(g *Group) {
			g.Go("worker", func(ctx context.Context) error {
				<-ctx.Done()
				stopped.Store(true)
				return nil
			})
		})
	}()

	sigs <- syscall.SIGTERM
	err := <-errCh
	require.ErrorIs(t, err, ErrSignal)

	var se *SignalError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, syscall.SIGTERM, se.Signal)
	assert.True(t, stopped.Load())
}

func TestRun_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, []Option{WithSignals(syscall.SIGUSR1)}, func(g *Group) {
		g.Go("worker", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	})
	assert.NoError(t, err)
}

func TestOptions(t *testing.T) {
	o := defaultOptions([]Option{nil, WithName(""), WithLogger(nil), WithSignals()})
	assert.Equal(t, "xrun", o.name)
	assert.NotNil(t, o.logger)
	assert.Equal(t, DefaultSignals(), o.signals)
}

func TestTicker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	err := Ticker(time.Millisecond, func(context.Context) error {
		if n.Add(1) == 3 {
			cancel()
		}
		return nil
	})(ctx)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, n.Load(), int32(3))

	boom := errors.New("boom")
	assert.ErrorIs(t, Ticker(time.Millisecond, func(context.Context) error { return boom })(context.Background()), boom)
	assert.ErrorIs(t, Ticker(0, func(context.Context) error { return nil })(context.Background()), ErrInvalidInterval)
	assert.ErrorIs(t, Ticker(time.Second, nil)(context.Background()), ErrNilFunc)
}

func TestHTTPServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- HTTPServer(srv, time.Second)(ctx) }()

	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	assert.ErrorIs(t, HTTPServer(nil, 0)(context.Background()), ErrNilServer)
}

func TestGRPCServer(t *testing.T) {
	lis := bufconn.Listen(1 << 16)
	srv := grpc.NewServer()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- GRPCServer(srv, lis, time.Second)(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("grpc server did not stop")
	}
	assert.ErrorIs(t, GRPCServer(nil, lis, 0)(context.Background()), ErrNilServer)
}

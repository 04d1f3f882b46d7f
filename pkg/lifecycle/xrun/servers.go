package xrun

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
)

// HTTPServer 返回运行 srv 的任务：ctx 取消后在 timeout 内 Shutdown，0 表示不限时。
// 外部直接关闭 srv 时任务返回 nil。
func HTTPServer(srv *http.Server, timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if srv == nil {
			return ErrNilServer
		}
		shutdownErr := make(chan error, 1)
		served := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				sctx, cancel := shutdownContext(timeout)
				defer cancel()
				shutdownErr <- srv.Shutdown(sctx)
			case <-served:
			}
		}()

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			close(served)
			return err
		}
		select {
		case err := <-shutdownErr:
			return err
		case <-ctx.Done():
			return <-shutdownErr
		default:
			close(served)
			return nil
		}
	}
}

// GRPCServer 返回在 lis 上运行 srv 的任务：ctx 取消后 GracefulStop，
// 超过 timeout 仍未结束则强制 Stop。timeout 为 0 时等待全部流结束。
func GRPCServer(srv *grpc.Server, lis net.Listener, timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if srv == nil || lis == nil {
			return ErrNilServer
		}
		stopped := make(chan struct{})
		served := make(chan struct{})
		go func() {
			defer close(stopped)
			select {
			case <-ctx.Done():
			case <-served:
				return
			}
			graceful := make(chan struct{})
			go func() {
				srv.GracefulStop()
				close(graceful)
			}()
			if timeout <= 0 {
				<-graceful
				return
			}
			t := time.NewTimer(timeout)
			defer t.Stop()
			select {
			case <-graceful:
			case <-t.C:
				srv.Stop()
				<-graceful
			}
		}()

		err := srv.Serve(lis)
		close(served)
		<-stopped
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// Ticker 返回每隔 interval 调用 fn 的任务，fn 出错即结束。
func Ticker(interval time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xsky/pkg/observability/xlog"
)

// Group 一组协同运行的任务。Go 与 Cancel 可并发调用，Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *options
	logger   xlog.Logger
}

// NewGroup 创建 Group，返回的 ctx 在任一任务失败或 Cancel 时取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions(opts)
	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     o,
		logger:   o.logger.With(xlog.Component("xrun"), slog.String("group", o.name)),
	}, egCtx
}

// Go 以 name 启动任务 fn。
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		attr := slog.String("task", name)
		g.logger.Debug(g.ctx, "xrun: task starting", attr)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.logger.Warn(g.ctx, "xrun: task failed", attr, xlog.Err(err))
		} else {
			g.logger.Debug(g.ctx, "xrun: task stopped", attr)
		}
		return err
	})
}

// Cancel 以 cause 取消全部任务，Wait 将返回 cause。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) { g.cancel(cause) }

// Context 返回任务共享的 ctx。
func (g *Group) Context() context.Context { return g.ctx }

// Wait 等待全部任务结束。
//
// 普通取消返回 nil；Cancel 或信号设置的原因优先于任务返回的 context.Canceled。
// 任务自身产生的 context.Canceled（Group 未被取消时）原样返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)
	err := g.eg.Wait()

	cause := g.explicitCause()
	switch {
	case err == nil:
		return cause
	case errors.Is(err, context.Canceled) && g.causeCtx.Err() != nil:
		return cause
	default:
		return err
	}
}

func (g *Group) explicitCause() error {
	if g.causeCtx.Err() == nil {
		return nil
	}
	if cause := context.Cause(g.causeCtx); !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Run 创建 Group、注册信号监听、调用 setup 注册任务并等待结束。
// 收到信号时返回 *SignalError。
func Run(ctx context.Context, opts []Option, setup func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)
	g.Go("signal", g.waitSignal)
	setup(g)
	return g.Wait()
}

func (g *Group) waitSignal(ctx context.Context) error {
	src := g.opts.sigSource
	if src == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, g.opts.signals...)
		defer signal.Stop(ch)
		src = ch
	}
	select {
	case sig := <-src:
		g.logger.Info(ctx, "xrun: received signal", slog.String("signal", sig.String()))
		g.cancel(&SignalError{Signal: sig})
		return nil
	case <-ctx.Done():
		return nil
	}
}

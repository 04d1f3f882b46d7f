package xreporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/observability/xmetrics"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

// Reporter 异步段上报器。Submit/Close 可并发调用，Run 同一时刻只允许一个。
type Reporter struct {
	sink     Sink
	sinkName string
	opts     *options
	logger   xlog.Logger

	queue chan xsegment.Segment

	// mu 保证 Submit 不会向已关闭的 queue 发送：Submit 持读锁，Close 持写锁关闭 queue。
	// done 先于写锁关闭，唤醒阻塞中的 Submit 使其释放读锁。
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool

	dropped   atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	dropLog   rate.Sometimes
}

// Stats 上报器计数快照。
type Stats struct {
	Queued    int
	Dropped   uint64
	Delivered uint64
	Failed    uint64
}

// New 创建 Reporter。创建后需在独立协程中调用 Run。
func New(sink Sink, opts ...Option) (*Reporter, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.queueSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueSize, o.queueSize)
	}
	if o.overflow != OverflowDrop && o.overflow != OverflowBlock {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOverflowPolicy, int(o.overflow))
	}

	logger := o.logger
	if logger == nil {
		logger = xlog.Default()
	}
	name := SinkName(sink)

	return &Reporter{
		sink:     sink,
		sinkName: name,
		opts:     o,
		logger:   logger.With(xlog.Component("xreporter"), xlog.Sink(name)),
		queue:    make(chan xsegment.Segment, o.queueSize),
		done:     make(chan struct{}),
		dropLog:  rate.Sometimes{Interval: o.dropLogGap},
	}, nil
}

// Submit 将段加入投递队列。
//
// 队列满时按 OverflowPolicy 处理：OverflowDrop 返回 ErrQueueFull；
// OverflowBlock 等待空位，ctx 结束返回 ctx.Err()，Reporter 关闭返回 ErrClosed。
// 关闭后调用返回 ErrClosed。所有未入队的情况都计入丢弃。
func (r *Reporter) Submit(ctx context.Context, seg xsegment.Segment) error {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(ctx, xmetrics.ReasonClosed, seg)
		return ErrClosed
	}

	select {
	case r.queue <- seg:
		r.opts.metrics.Submitted(ctx)
		return nil
	default:
	}

	if r.opts.overflow == OverflowDrop {
		r.drop(ctx, xmetrics.ReasonQueueFull, seg)
		return ErrQueueFull
	}

	select {
	case r.queue <- seg:
		r.opts.metrics.Submitted(ctx)
		return nil
	case <-ctx.Done():
		r.drop(ctx, xmetrics.ReasonCanceled, seg)
		return ctx.Err()
	case <-r.done:
		r.drop(ctx, xmetrics.ReasonClosed, seg)
		return ErrClosed
	}
}

// Run 消费队列并按提交顺序投递，阻塞直到：
//   - Close 后队列排空，返回 nil
//   - ctx 结束，返回 nil，队列中未投递的段保留
//   - 启用 WithStopOnError 且投递失败，返回 *DeliveryError
//
// 已有 Run 在执行时返回 ErrAlreadyRunning。
func (r *Reporter) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	batch := make([]xsegment.Segment, 0, r.opts.maxBatch)
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug(ctx, "xreporter: run stopped", slog.Int("queued", len(r.queue)))
			return nil
		case seg, ok := <-r.queue:
			if !ok {
				r.logger.Debug(ctx, "xreporter: drained")
				return nil
			}
			batch = r.fill(append(batch[:0], seg))
			if err := r.deliver(ctx, batch); err != nil && r.opts.stopOnError {
				return err
			}
			clear(batch)
		}
	}
}

// fill 非阻塞地取出已在队列中的段，直到达到 maxBatch。
func (r *Reporter) fill(batch []xsegment.Segment) []xsegment.Segment {
	for len(batch) < r.opts.maxBatch {
		select {
		case seg, ok := <-r.queue:
			if !ok {
				return batch
			}
			batch = append(batch, seg)
		default:
			return batch
		}
	}
	return batch
}

func (r *Reporter) deliver(ctx context.Context, batch []xsegment.Segment) error {
	sendCtx := ctx
	if r.opts.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, r.opts.sendTimeout)
		defer cancel()
	}

	start := time.Now()
	err := r.safeSend(sendCtx, batch)
	elapsed := time.Since(start)

	if err == nil {
		r.delivered.Add(uint64(len(batch)))
		r.opts.metrics.Delivered(ctx, r.sinkName, countSpans(batch), elapsed)
		return nil
	}

	r.failed.Add(uint64(len(batch)))
	r.opts.metrics.Failed(ctx, r.sinkName, elapsed)
	derr := &DeliveryError{
		Sink:      r.sinkName,
		SegmentID: batch[0].SegmentID,
		Count:     len(batch),
		Err:       err,
	}
	r.logger.Error(ctx, "xreporter: delivery failed",
		xlog.SegmentID(derr.SegmentID),
		xlog.Count(int64(derr.Count)),
		xlog.Duration(elapsed),
		xlog.Err(err),
	)
	if r.opts.onError != nil {
		r.opts.onError(derr)
	}
	return derr
}

// safeSend 调用 Sink，panic 转为 ErrSinkPanic，保证 Run 协程存活。
func (r *Reporter) safeSend(ctx context.Context, batch []xsegment.Segment) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, rec)
		}
	}()
	return sendBatch(ctx, r.sink, batch)
}

func (r *Reporter) drop(ctx context.Context, reason string, seg xsegment.Segment) {
	n := r.dropped.Add(1)
	r.opts.metrics.Dropped(ctx, reason)
	r.dropLog.Do(func() {
		r.logger.Warn(ctx, "xreporter: segment dropped",
			slog.String("reason", reason),
			xlog.SegmentID(seg.SegmentID),
			slog.Uint64("dropped_total", n),
		)
	})
}

// Close 停止接收新段，可重复调用。Run 会投递完队列中剩余的段后返回。
func (r *Reporter) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})
	return nil
}

// QueueDepth 返回队列中等待投递的段数。
func (r *Reporter) QueueDepth() int {
	return len(r.queue)
}

// Stats 返回计数快照。
func (r *Reporter) Stats() Stats {
	return Stats{
		Queued:    len(r.queue),
		Dropped:   r.dropped.Load(),
		Delivered: r.delivered.Load(),
		Failed:    r.failed.Load(),
	}
}

func countSpans(batch []xsegment.Segment) int {
	n := 0
	for i := range batch {
		n += len(batch[i].Spans)
	}
	return n
}

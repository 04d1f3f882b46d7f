package xagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xsky/pkg/config/xconf"
	"github.com/omeyang/xsky/pkg/lifecycle/xrun"
	"github.com/omeyang/xsky/pkg/mq/xkafka"
	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/observability/xmetrics"
	"github.com/omeyang/xsky/pkg/resilience/xbreaker"
	"github.com/omeyang/xsky/pkg/resilience/xretry"
	"github.com/omeyang/xsky/pkg/trace/xcollector"
	"github.com/omeyang/xsky/pkg/trace/xreporter"
	"github.com/omeyang/xsky/pkg/trace/xtracing"
	"github.com/omeyang/xsky/pkg/util/xid"
)

// =============================================================================
// 选项
// =============================================================================

type agentOptions struct {
	sink          xreporter.Sink
	clock         xtracing.Clock
	ids           xid.Generator
	logger        xlog.LoggerWithLevel
	meterProvider metric.MeterProvider
}

// Option Agent 配置选项
type Option func(*agentOptions)

// WithSink 使用给定 sink，忽略 collector 配置。Agent 不负责关闭它。
func WithSink(s xreporter.Sink) Option {
	return func(o *agentOptions) { o.sink = s }
}

// WithClock 设置时钟，默认真实时钟。
func WithClock(c xtracing.Clock) Option {
	return func(o *agentOptions) { o.clock = c }
}

// WithIDGenerator 设置 ID 生成器，优先于 ids 配置。
func WithIDGenerator(g xid.Generator) Option {
	return func(o *agentOptions) { o.ids = g }
}

// WithLogger 使用给定日志记录器，忽略 log 配置。
func WithLogger(l xlog.LoggerWithLevel) Option {
	return func(o *agentOptions) { o.logger = l }
}

// WithMeterProvider 启用 OpenTelemetry 指标。
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(o *agentOptions) { o.meterProvider = p }
}

// =============================================================================
// Agent
// =============================================================================

// Agent 追踪管线。除 Run 外的方法可并发调用。
type Agent struct {
	service  string
	instance string
	clock    xtracing.Clock
	ids      xid.Generator

	cfg      Config
	logger   xlog.LoggerWithLevel
	reporter *xreporter.Reporter
	sinkName string

	// closers 按注册逆序执行
	closers []func() error
}

// New 校验配置并组装 Agent。失败时已创建的资源会被释放。
func New(cfg Config, opts ...Option) (a *Agent, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &agentOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	a = &Agent{service: cfg.Service, instance: cfg.instanceName(), clock: o.clock, cfg: cfg}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
			a = nil
		}
	}()

	if err = a.initLogger(o); err != nil {
		return a, err
	}
	if err = a.initIDs(o); err != nil {
		return a, err
	}
	sink, err := a.buildSink(o)
	if err != nil {
		return a, err
	}
	if err = a.initReporter(sink, o); err != nil {
		return a, err
	}

	a.logger.Info(context.Background(), "xagent: started",
		xlog.Service(a.service), xlog.Instance(a.instance), xlog.Sink(a.sinkName))
	return a, nil
}

func (a *Agent) initLogger(o *agentOptions) error {
	if o.logger != nil {
		a.logger = o.logger
		return nil
	}
	l, cleanup, err := xlog.New().
		SetLevelString(a.cfg.Log.Level).
		SetFormat(a.cfg.Log.Format).
		SetRotation(a.cfg.Log.File).
		Build()
	if err != nil {
		return fmt.Errorf("xagent: build logger: %w", err)
	}
	a.logger = l
	a.closers = append(a.closers, cleanup)
	return nil
}

func (a *Agent) initIDs(o *agentOptions) error {
	switch {
	case o.ids != nil:
		a.ids = o.ids
	case a.cfg.IDs == IDsSonyflake:
		g, err := xid.NewSonyflakeGenerator()
		if err != nil {
			return fmt.Errorf("xagent: sonyflake: %w", err)
		}
		a.ids = g
	default:
		a.ids = xid.NewUUIDGenerator()
	}
	return nil
}

// buildSink 依据 collector 配置创建 sink，并按需包装熔断与重试。
// 重试包在熔断外层，熔断拒绝不会被重试。
func (a *Agent) buildSink(o *agentOptions) (xreporter.Sink, error) {
	sink := o.sink
	if sink == nil {
		var err error
		if sink, err = a.dialSink(); err != nil {
			return nil, err
		}
	}
	a.sinkName = xreporter.SinkName(sink)

	if a.cfg.Reporter.Breaker {
		b := xbreaker.NewBreaker(a.sinkName, xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
			a.logger.Warn(context.Background(), "xagent: sink breaker state changed",
				xlog.Sink(name), slog.String("from", from.String()), slog.String("to", to.String()))
		}))
		sink = xreporter.WithBreaker(sink, b)
	}
	if a.cfg.Reporter.RetryAttempts > 1 {
		r := xretry.NewRetryer(
			xretry.WithAttempts(a.cfg.Reporter.RetryAttempts),
			xretry.WithOnRetry(func(attempt int, err error) {
				a.logger.Debug(context.Background(), "xagent: retrying delivery",
					slog.Int("attempt", attempt), xlog.Err(err))
			}),
		)
		sink = xreporter.WithRetry(sink, r)
	}
	return sink, nil
}

func (a *Agent) dialSink() (xreporter.Sink, error) {
	logger := a.logger.With(xlog.Service(a.service))
	switch a.cfg.Collector.Kind {
	case CollectorGRPC:
		c, err := xcollector.Dial(a.cfg.Collector.Address, xcollector.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	case CollectorKafka:
		s, err := xkafka.NewSink(
			&kafka.ConfigMap{"bootstrap.servers": strings.Join(a.cfg.Kafka.Brokers, ",")},
			xkafka.WithTopic(a.cfg.Kafka.Topic),
			xkafka.WithSinkLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return newLogSink(logger), nil
	}
}

func (a *Agent) initReporter(sink xreporter.Sink, o *agentOptions) error {
	policy, err := a.cfg.overflowPolicy()
	if err != nil {
		return err
	}
	ropts := []xreporter.Option{
		xreporter.WithOverflowPolicy(policy),
		xreporter.WithLogger(a.logger),
	}
	if a.cfg.Reporter.QueueSize > 0 {
		ropts = append(ropts, xreporter.WithQueueSize(a.cfg.Reporter.QueueSize))
	}
	if a.cfg.Reporter.MaxBatch > 0 {
		ropts = append(ropts, xreporter.WithMaxBatch(a.cfg.Reporter.MaxBatch))
	}
	if a.cfg.Reporter.SendTimeout > 0 {
		ropts = append(ropts, xreporter.WithSendTimeout(a.cfg.Reporter.SendTimeout))
	}

	var rec *xmetrics.OTelRecorder
	if o.meterProvider != nil {
		if rec, err = xmetrics.NewOTelRecorder(xmetrics.WithMeterProvider(o.meterProvider)); err != nil {
			return err
		}
		ropts = append(ropts, xreporter.WithMetrics(rec))
	}

	if a.reporter, err = xreporter.New(sink, ropts...); err != nil {
		return err
	}
	if rec != nil {
		unregister, err := rec.ObserveQueueDepth(func() int64 { return int64(a.reporter.QueueDepth()) })
		if err != nil {
			return err
		}
		a.closers = append(a.closers, unregister)
	}
	return nil
}

// Service 返回本进程服务名。
func (a *Agent) Service() string { return a.service }

// Instance 返回本进程实例名。
func (a *Agent) Instance() string { return a.instance }

// Logger 返回 Agent 的日志记录器。
func (a *Agent) Logger() xlog.Logger { return a.logger }

// Stats 返回 Reporter 统计。
func (a *Agent) Stats() xreporter.Stats { return a.reporter.Stats() }

// Run 运行投递任务，阻塞到 ctx 结束。
//
// ctx 结束后关闭队列，把已提交的段全部投递（每次投递受 send_timeout 限制）后返回 nil。
// 只能调用一次。
func (a *Agent) Run(ctx context.Context) error {
	if a == nil {
		return ErrNilAgent
	}
	g, _ := xrun.NewGroup(ctx, xrun.WithName("xagent"), xrun.WithLogger(a.logger))
	g.Go("reporter", func(ctx context.Context) error {
		// 与外部取消解耦，关闭队列后由 Run 自然排空
		return a.reporter.Run(context.WithoutCancel(ctx))
	})
	g.Go("shutdown", func(ctx context.Context) error {
		<-ctx.Done()
		return a.reporter.Close()
	})
	if iv := a.cfg.Reporter.StatsInterval; iv > 0 {
		g.Go("stats", xrun.Ticker(iv, func(ctx context.Context) error {
			st := a.reporter.Stats()
			a.logger.Info(ctx, "xagent: reporter stats",
				slog.Int("queued", st.Queued),
				slog.Uint64("delivered", st.Delivered),
				slog.Uint64("failed", st.Failed),
				slog.Uint64("dropped", st.Dropped))
			return nil
		}))
	}

	err := g.Wait()
	if err != nil && errors.Is(err, context.Cause(ctx)) {
		err = nil
	}
	st := a.reporter.Stats()
	a.logger.Info(context.Background(), "xagent: stopped",
		slog.Uint64("delivered", st.Delivered), slog.Uint64("dropped", st.Dropped), slog.Uint64("failed", st.Failed))
	return err
}

// Close 关闭队列并释放 sink 与日志资源，应在 Run 返回后调用。可重复调用。
func (a *Agent) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.reporter != nil {
		errs = append(errs, a.reporter.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// WatchConfig 监视配置文件，变更后热更新日志级别。其余字段需重启生效。
func (a *Agent) WatchConfig(src *xconf.Config) (*xconf.Watcher, error) {
	return xconf.Watch(src, func(cfg *xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			a.logger.Warn(ctx, "xagent: config reload failed", xlog.Err(err))
			return
		}
		var lc LogConfig
		if err := cfg.Unmarshal("log", &lc); err != nil {
			a.logger.Warn(ctx, "xagent: config reload failed", xlog.Err(err))
			return
		}
		level, err := xlog.ParseLevel(lc.Level)
		if err != nil {
			a.logger.Warn(ctx, "xagent: invalid log level", slog.String("level", lc.Level), xlog.Err(err))
			return
		}
		a.logger.SetLevel(level)
		a.logger.Info(ctx, "xagent: log level updated", slog.String("level", level.String()))
	})
}

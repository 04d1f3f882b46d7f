package xmetrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xsky/xmetrics"

	metricSubmitted  = "xsky.reporter.submitted"
	metricDropped    = "xsky.reporter.dropped"
	metricDelivered  = "xsky.reporter.delivered"
	metricFailed     = "xsky.reporter.failed"
	metricSpans      = "xsky.reporter.spans"
	metricDuration   = "xsky.reporter.duration"
	metricQueueDepth = "xsky.reporter.queue.depth"
)

// ErrCreateInstrument 创建 OTel 仪表失败。
var ErrCreateInstrument = errors.New("xmetrics: create instrument failed")

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// Option 配置 OTelRecorder。
type Option func(*otelConfig)

// WithInstrumentationName 设置 instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认 otel.GetMeterProvider()。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// OTelRecorder 基于 OpenTelemetry 的 Recorder。
type OTelRecorder struct {
	meter     metric.Meter
	submitted metric.Int64Counter
	dropped   metric.Int64Counter
	delivered metric.Int64Counter
	failed    metric.Int64Counter
	spans     metric.Int64Counter
	duration  metric.Float64Histogram
}

var _ Recorder = (*OTelRecorder)(nil)

// NewOTelRecorder 创建 OTelRecorder。
func NewOTelRecorder(opts ...Option) (*OTelRecorder, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	r := &OTelRecorder{meter: meter}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&r.submitted, metricSubmitted, "segments accepted into the reporter queue"},
		{&r.dropped, metricDropped, "segments rejected by the reporter"},
		{&r.delivered, metricDelivered, "segments delivered to the sink"},
		{&r.failed, metricFailed, "segments the sink failed to accept"},
		{&r.spans, metricSpans, "spans delivered to the sink"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, c.name, err)
		}
		*c.dst = counter
	}

	var err error
	r.duration, err = meter.Float64Histogram(metricDuration,
		metric.WithDescription("time spent delivering one segment"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricDuration, err)
	}
	return r, nil
}

func (r *OTelRecorder) Submitted(ctx context.Context) {
	r.submitted.Add(ctx, 1)
}

func (r *OTelRecorder) Dropped(ctx context.Context, reason string) {
	r.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (r *OTelRecorder) Delivered(ctx context.Context, sink string, spans int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("sink", sink))
	r.delivered.Add(ctx, 1, attrs)
	r.spans.Add(ctx, int64(spans), attrs)
	r.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("sink", sink), attribute.Bool("error", false)))
}

func (r *OTelRecorder) Failed(ctx context.Context, sink string, elapsed time.Duration) {
	r.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
	r.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("sink", sink), attribute.Bool("error", true)))
}

// ObserveQueueDepth 注册队列长度 Gauge，返回的函数用于注销。
func (r *OTelRecorder) ObserveQueueDepth(depth func() int64) (unregister func() error, err error) {
	gauge, err := r.meter.Int64ObservableGauge(metricQueueDepth,
		metric.WithDescription("segments waiting in the reporter queue"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricQueueDepth, err)
	}
	reg, err := r.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, depth())
		return nil
	}, gauge)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: register callback: %w", err)
	}
	return reg.Unregister, nil
}

package xkafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

// producer 是 Sink 用到的 *kafka.Producer 方法子集。
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Len() int
	Close()
}

var _ producer = (*kafka.Producer)(nil)

// SinkStats Sink 统计信息。
type SinkStats struct {
	// Delivered 收到成功投递报告的段数
	Delivered int64
	// Bytes 成功投递的 value 字节数
	Bytes int64
	// Errors 入队或投递失败的段数
	Errors int64
	// QueueLength librdkafka 本地队列长度
	QueueLength int
}

type sinkOptions struct {
	topic        string
	flushTimeout time.Duration
	logger       xlog.Logger
}

// SinkOption Sink 配置选项
type SinkOption func(*sinkOptions)

// WithTopic 设置目标主题，空串被忽略。
func WithTopic(topic string) SinkOption {
	return func(o *sinkOptions) {
		if topic != "" {
			o.topic = topic
		}
	}
}

// WithFlushTimeout 设置 Close 时等待本地队列清空的时间，默认 10s。
func WithFlushTimeout(d time.Duration) SinkOption {
	return func(o *sinkOptions) {
		if d > 0 {
			o.flushTimeout = d
		}
	}
}

// WithSinkLogger 设置日志记录器。
func WithSinkLogger(l xlog.Logger) SinkOption {
	return func(o *sinkOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Sink 把段写入 Kafka。Send 可并发调用。
type Sink struct {
	producer producer
	opts     *sinkOptions
	logger   xlog.Logger

	// mu 串行化 Close 与 Len 等管理操作；Produce 本身线程安全
	mu     sync.Mutex
	closed atomic.Bool

	delivered atomic.Int64
	bytes     atomic.Int64
	errors    atomic.Int64
}

// NewSink 创建 Sink。config 必须包含 bootstrap.servers。
func NewSink(config *kafka.ConfigMap, opts ...SinkOption) (*Sink, error) {
	cloned, err := cloneConfig(config)
	if err != nil {
		return nil, err
	}
	p, err := kafka.NewProducer(cloned)
	if err != nil {
		return nil, fmt.Errorf("xkafka: new producer: %w", err)
	}
	return newSink(p, opts...), nil
}

func newSink(p producer, opts ...SinkOption) *Sink {
	o := &sinkOptions{topic: DefaultTopic, flushTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}
	return &Sink{
		producer: p,
		opts:     o,
		logger:   o.logger.With(xlog.Component("xkafka"), slog.String("topic", o.topic)),
	}
}

// Name 用于日志与指标。
func (s *Sink) Name() string { return "kafka" }

// Topic 返回目标主题。
func (s *Sink) Topic() string { return s.opts.topic }

// Send 写入单个段并等待投递报告。
func (s *Sink) Send(ctx context.Context, seg xsegment.Segment) error {
	return s.SendBatch(ctx, []xsegment.Segment{seg})
}

// SendBatch 依次入队 segs，等待全部投递报告；返回遇到的所有错误。
// ctx 结束时不再等待剩余报告，已入队的消息仍可能被发送。
func (s *Sink) SendBatch(ctx context.Context, segs []xsegment.Segment) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(segs) == 0 {
		return nil
	}

	delivery := make(chan kafka.Event, len(segs))
	pending := 0
	var errs []error
	for i := range segs {
		msg, err := s.message(segs[i])
		if err == nil {
			err = s.producer.Produce(msg, delivery)
		}
		if err != nil {
			s.errors.Add(1)
			errs = append(errs, fmt.Errorf("xkafka: produce segment %s: %w", segs[i].SegmentID, err))
			continue
		}
		pending++
	}

	for ; pending > 0; pending-- {
		select {
		case ev := <-delivery:
			if err := s.handleReport(ev); err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) message(seg xsegment.Segment) (*kafka.Message, error) {
	value, err := xsegment.Marshal(seg)
	if err != nil {
		return nil, err
	}
	topic := s.opts.topic
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(seg.SegmentID),
		Value:          value,
		Headers:        []kafka.Header{{Key: HeaderTraceID, Value: []byte(seg.TraceID)}},
	}, nil
}

func (s *Sink) handleReport(ev kafka.Event) error {
	m, ok := ev.(*kafka.Message)
	if !ok {
		s.errors.Add(1)
		return fmt.Errorf("%w: %T", ErrUnexpectedEvent, ev)
	}
	if err := m.TopicPartition.Error; err != nil {
		s.errors.Add(1)
		return fmt.Errorf("xkafka: deliver segment %s: %w", m.Key, err)
	}
	s.delivered.Add(1)
	s.bytes.Add(int64(len(m.Value)))
	return nil
}

// Stats 返回统计信息，关闭后 QueueLength 为 0。
func (s *Sink) Stats() SinkStats {
	st := SinkStats{
		Delivered: s.delivered.Load(),
		Bytes:     s.bytes.Load(),
		Errors:    s.errors.Load(),
	}
	s.mu.Lock()
	if !s.closed.Load() {
		st.QueueLength = s.producer.Len()
	}
	s.mu.Unlock()
	return st
}

// Close 等待本地队列清空（受 FlushTimeout 限制）后关闭生产者。重复调用返回 ErrClosed。
func (s *Sink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.producer.Flush(int(s.opts.flushTimeout.Milliseconds()))
	s.producer.Close()
	if remaining > 0 {
		s.logger.Warn(context.Background(), "xkafka: messages left unflushed", xlog.Count(int64(remaining)))
		return fmt.Errorf("%w: %d messages still in queue", ErrFlushTimeout, remaining)
	}
	return nil
}

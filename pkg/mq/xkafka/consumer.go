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

// consumer 是 Consumer 用到的 *kafka.Consumer 方法子集。
type consumer interface {
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	StoreMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Commit() ([]kafka.TopicPartition, error)
	Close() error
}

var _ consumer = (*kafka.Consumer)(nil)

// SegmentHandler 处理解码后的段。返回错误时该消息的偏移量不会被存储。
type SegmentHandler func(ctx context.Context, seg xsegment.Segment) error

// ConsumerStats Consumer 统计信息。
type ConsumerStats struct {
	// Consumed 成功处理的段数
	Consumed int64
	// Malformed 无法解码而跳过的消息数
	Malformed int64
	// Errors 处理失败或读取出错的次数
	Errors int64
}

type consumerOptions struct {
	topic       string
	pollTimeout time.Duration
	logger      xlog.Logger
}

// ConsumerOption Consumer 配置选项
type ConsumerOption func(*consumerOptions)

// WithConsumerTopic 设置订阅主题，空串被忽略。
func WithConsumerTopic(topic string) ConsumerOption {
	return func(o *consumerOptions) {
		if topic != "" {
			o.topic = topic
		}
	}
}

// WithPollTimeout 设置单次轮询超时，默认 100ms。决定 Run 响应 ctx 取消的延迟上限。
func WithPollTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if d > 0 {
			o.pollTimeout = d
		}
	}
}

// WithConsumerLogger 设置日志记录器。
func WithConsumerLogger(l xlog.Logger) ConsumerOption {
	return func(o *consumerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Consumer 从 Kafka 读取段。Run 不可并发调用。
type Consumer struct {
	consumer consumer
	opts     *consumerOptions
	logger   xlog.Logger

	mu     sync.Mutex
	closed atomic.Bool

	consumed  atomic.Int64
	malformed atomic.Int64
	errors    atomic.Int64
}

// NewConsumer 创建 Consumer 并订阅主题。config 必须包含 bootstrap.servers 与 group.id。
// enable.auto.offset.store 被强制为 false，偏移量仅在处理成功后存储。
func NewConsumer(config *kafka.ConfigMap, opts ...ConsumerOption) (*Consumer, error) {
	cloned, err := cloneConfig(config)
	if err != nil {
		return nil, err
	}
	if err := cloned.SetKey("enable.auto.offset.store", false); err != nil {
		return nil, fmt.Errorf("xkafka: set enable.auto.offset.store: %w", err)
	}

	o := defaultConsumerOptions(opts)
	kc, err := kafka.NewConsumer(cloned)
	if err != nil {
		return nil, fmt.Errorf("xkafka: new consumer: %w", err)
	}
	if err := kc.SubscribeTopics([]string{o.topic}, nil); err != nil {
		return nil, errors.Join(fmt.Errorf("xkafka: subscribe %s: %w", o.topic, err), kc.Close())
	}
	return newConsumer(kc, o), nil
}

func defaultConsumerOptions(opts []ConsumerOption) *consumerOptions {
	o := &consumerOptions{topic: DefaultTopic, pollTimeout: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}
	return o
}

func newConsumer(c consumer, o *consumerOptions) *Consumer {
	return &Consumer{
		consumer: c,
		opts:     o,
		logger:   o.logger.With(xlog.Component("xkafka"), slog.String("topic", o.topic)),
	}
}

// Run 持续读取并处理消息，直到 ctx 结束（返回 nil）、Consumer 关闭（返回 ErrClosed）
// 或遇到致命的 Kafka 错误。
//
// 无法解码的消息记录告警后跳过并存储偏移量，避免毒消息阻塞分区；
// handler 失败只记录日志，不存储偏移量。
func (c *Consumer) Run(ctx context.Context, handler SegmentHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	for {
		if c.closed.Load() {
			return ErrClosed
		}
		if ctx.Err() != nil {
			return nil
		}

		msg, err := c.consumer.ReadMessage(c.opts.pollTimeout)
		if err != nil {
			var kafkaErr kafka.Error
			if errors.As(err, &kafkaErr) {
				if kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kafkaErr.IsFatal() {
					return fmt.Errorf("xkafka: fatal consumer error: %w", err)
				}
			}
			c.errors.Add(1)
			c.logger.Warn(ctx, "xkafka: read failed", xlog.Err(err))
			continue
		}
		c.process(ctx, msg, handler)
	}
}

func (c *Consumer) process(ctx context.Context, msg *kafka.Message, handler SegmentHandler) {
	seg, err := xsegment.Unmarshal(msg.Value)
	if err != nil {
		c.malformed.Add(1)
		c.logger.Warn(ctx, "xkafka: skip malformed segment", slog.String("key", string(msg.Key)), xlog.Err(err))
		c.store(ctx, msg)
		return
	}
	if err := handler(ctx, seg); err != nil {
		c.errors.Add(1)
		c.logger.Error(ctx, "xkafka: handle segment failed", xlog.SegmentID(seg.SegmentID), xlog.Err(err))
		return
	}
	c.consumed.Add(1)
	c.store(ctx, msg)
}

// store 使用 StoreMessage 而非 StoreOffsets：前者内部执行 offset+1。
func (c *Consumer) store(ctx context.Context, msg *kafka.Message) {
	if _, err := c.consumer.StoreMessage(msg); err != nil {
		c.logger.Warn(ctx, "xkafka: store offset failed", xlog.Err(err))
	}
}

// Stats 返回统计信息。
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:  c.consumed.Load(),
		Malformed: c.malformed.Load(),
		Errors:    c.errors.Load(),
	}
}

// Close 提交已存储的偏移量并关闭消费者。重复调用返回 ErrClosed。
func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	_, commitErr := c.consumer.Commit()
	var kafkaErr kafka.Error
	if errors.As(commitErr, &kafkaErr) && kafkaErr.Code() == kafka.ErrNoOffset {
		commitErr = nil
	}
	closeErr := c.consumer.Close()
	if commitErr != nil {
		commitErr = fmt.Errorf("xkafka: commit on close: %w", commitErr)
	}
	return errors.Join(commitErr, closeErr)
}

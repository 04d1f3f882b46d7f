package xkafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsky/pkg/trace/xreporter"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

var _ xreporter.StreamSink = (*Sink)(nil)

// fakeProducer 同步回送投递报告。
type fakeProducer struct {
	mu         sync.Mutex
	produced   []*kafka.Message
	produceErr error
	deliverErr error
	silent     bool
	remaining  int
	closed     bool
}

func (p *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.produceErr != nil {
		return p.produceErr
	}
	p.produced = append(p.produced, msg)
	if p.silent {
		return nil
	}
	report := *msg
	report.TopicPartition.Error = p.deliverErr
	deliveryChan <- &report
	return nil
}

func (p *fakeProducer) Flush(int) int { return p.remaining }
func (p *fakeProducer) Len() int      { return p.remaining }

func (p *fakeProducer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func testSegment(id string) xsegment.Segment {
	return xsegment.Segment{
		TraceID:         "trace-" + id,
		SegmentID:       id,
		Service:         "svc",
		ServiceInstance: "inst",
		Spans: []xsegment.Span{{
			SpanID: 0, ParentSpanID: -1, StartTime: 1, EndTime: 2,
			OperationName: "/api", Type: xsegment.SpanTypeEntry, Layer: xsegment.SpanLayerHTTP,
		}},
	}
}

func TestSink_Send(t *testing.T) {
	p := &fakeProducer{}
	s := newSink(p)

	require.NoError(t, s.Send(context.Background(), testSegment("s1")))

	require.Len(t, p.produced, 1)
	msg := p.produced[0]
	assert.Equal(t, DefaultTopic, *msg.TopicPartition.Topic)
	assert.Equal(t, kafka.PartitionAny, msg.TopicPartition.Partition)
	assert.Equal(t, []byte("s1"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderTraceID, msg.Headers[0].Key)
	assert.Equal(t, []byte("trace-s1"), msg.Headers[0].Value)

	decoded, err := xsegment.Unmarshal(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, testSegment("s1"), decoded)

	st := s.Stats()
	assert.Equal(t, int64(1), st.Delivered)
	assert.Equal(t, int64(len(msg.Value)), st.Bytes)
	assert.Zero(t, st.Errors)
}

func TestSink_SendBatch(t *testing.T) {
	p := &fakeProducer{}
	s := newSink(p, WithTopic("custom"))
	assert.Equal(t, "custom", s.Topic())
	assert.Equal(t, "kafka", s.Name())

	segs := []xsegment.Segment{testSegment("a"), testSegment("b"), testSegment("c")}
	require.NoError(t, s.SendBatch(context.Background(), segs))

	require.Len(t, p.produced, 3)
	for i, msg := range p.produced {
		assert.Equal(t, "custom", *msg.TopicPartition.Topic)
		assert.Equal(t, []byte(segs[i].SegmentID), msg.Key)
	}
	assert.Equal(t, int64(3), s.Stats().Delivered)

	require.NoError(t, s.SendBatch(context.Background(), nil))
}

func TestSink_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    *fakeProducer
	}{
		{"入队失败", &fakeProducer{produceErr: kafka.NewError(kafka.ErrQueueFull, "queue full", false)}},
		{"投递失败", &fakeProducer{deliverErr: kafka.NewError(kafka.ErrMsgTimedOut, "timed out", false)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSink(tt.p)
			err := s.SendBatch(context.Background(), []xsegment.Segment{testSegment("a"), testSegment("b")})
			require.Error(t, err)

			var kerr kafka.Error
			require.True(t, errors.As(err, &kerr))
			assert.Equal(t, int64(2), s.Stats().Errors)
			assert.Zero(t, s.Stats().Delivered)
		})
	}
}

func TestSink_ContextCanceled(t *testing.T) {
	p := &fakeProducer{silent: true}
	s := newSink(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, testSegment("s1"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, p.produced, 1)
}

func TestSink_Close(t *testing.T) {
	t.Run("正常关闭", func(t *testing.T) {
		p := &fakeProducer{}
		s := newSink(p)
		require.NoError(t, s.Close())
		assert.True(t, p.closed)
		assert.ErrorIs(t, s.Close(), ErrClosed)
		assert.ErrorIs(t, s.Send(context.Background(), testSegment("x")), ErrClosed)
		assert.Zero(t, s.Stats().QueueLength)
	})

	t.Run("未清空", func(t *testing.T) {
		p := &fakeProducer{remaining: 2}
		s := newSink(p)
		assert.Equal(t, 2, s.Stats().QueueLength)
		err := s.Close()
		require.ErrorIs(t, err, ErrFlushTimeout)
		assert.Contains(t, err.Error(), "2 messages")
		assert.True(t, p.closed)
	})
}

func TestSink_UnexpectedEvent(t *testing.T) {
	s := newSink(&fakeProducer{})
	err := s.handleReport(kafka.OffsetsCommitted{})
	require.ErrorIs(t, err, ErrUnexpectedEvent)
	assert.Equal(t, int64(1), s.Stats().Errors)
}

func TestCloneConfig(t *testing.T) {
	_, err := cloneConfig(nil)
	require.ErrorIs(t, err, ErrNilConfig)

	orig := &kafka.ConfigMap{"bootstrap.servers": "localhost:9092"}
	cloned, err := cloneConfig(orig)
	require.NoError(t, err)
	require.NoError(t, cloned.SetKey("group.id", "g"))
	_, ok := (*orig)["group.id"]
	assert.False(t, ok)
}

func TestNewSink_NilConfig(t *testing.T) {
	_, err := NewSink(nil)
	require.ErrorIs(t, err, ErrNilConfig)
}

package xagent_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xagent"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
	"github.com/omeyang/xsky/pkg/util/xid"
)

var epoch = time.UnixMilli(1_700_000_000_000)

type recordingSink struct {
	mu   sync.Mutex
	segs []xsegment.Segment
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, seg xsegment.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segs = append(s.segs, seg)
	return nil
}

func (s *recordingSink) all() []xsegment.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]xsegment.Segment(nil), s.segs...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func seqIDs() xid.Generator {
	var n atomic.Int64
	return xid.GeneratorFunc(func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	})
}

type harness struct {
	agent *xagent.Agent
	sink  *recordingSink
	logs  *syncBuffer
	stop  func()
}

func testConfig() xagent.Config {
	return xagent.Config{
		Service:   "checkout",
		Instance:  "checkout-1",
		Collector: xagent.CollectorConfig{Kind: xagent.CollectorLog},
	}
}

// startAgent 启动 Agent，stop 取消运行并等待队列排空。
func startAgent(t *testing.T, cfg xagent.Config) *harness {
	t.Helper()
	logs := &syncBuffer{}
	logger, cleanup, err := xlog.New().SetOutput(logs).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)

	sink := &recordingSink{}
	a, err := xagent.New(cfg,
		xagent.WithSink(sink),
		xagent.WithLogger(logger),
		xagent.WithClock(clockwork.NewFakeClockAt(epoch)),
		xagent.WithIDGenerator(seqIDs()),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			require.NoError(t, <-done)
			require.NoError(t, a.Close())
			require.NoError(t, cleanup())
		})
	}
	t.Cleanup(stop)
	return &harness{agent: a, sink: sink, logs: logs, stop: stop}
}

func tagValue(sp xsegment.Span, key string) (string, bool) {
	for _, kv := range sp.Tags {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

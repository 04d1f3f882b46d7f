package xtracing_test

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/omeyang/xsky/pkg/trace/xtracing"
)

func ExampleTracingContext() {
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	tc := xtracing.New(clock, "producer", "node_0")

	entry, _ := tc.CreateEntrySpan("/ping")
	exit, _ := tc.CreateExitSpan("/pong", "consumer:8082")
	header, _ := tc.EncodePropagation("/pong", "consumer:8082")
	_ = header // 写入对外请求的 sw8 头

	clock.Advance(5 * time.Millisecond)
	_ = tc.FinalizeSpan(exit)
	_ = tc.FinalizeSpan(entry)

	for _, s := range tc.SegmentObject().Spans {
		fmt.Println(s.SpanID, s.ParentSpanID, s.Type, s.EndTime-s.StartTime)
	}
	// Output:
	// 1 0 Exit 5
	// 0 -1 Entry 5
}

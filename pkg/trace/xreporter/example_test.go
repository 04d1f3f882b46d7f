package xreporter_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xsky/pkg/trace/xreporter"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

func ExampleReporter() {
	sink := xreporter.SinkFunc(func(_ context.Context, seg xsegment.Segment) error {
		fmt.Println("deliver", seg.SegmentID, len(seg.Spans))
		return nil
	})

	r, err := xreporter.New(sink, xreporter.WithQueueSize(16))
	if err != nil {
		panic(err)
	}
	_ = r.Submit(context.Background(), xsegment.Segment{SegmentID: "s1", Spans: make([]xsegment.Span, 2)})
	_ = r.Submit(context.Background(), xsegment.Segment{SegmentID: "s2", Spans: make([]xsegment.Span, 1)})

	_ = r.Close()
	_ = r.Run(context.Background())
	// Output:
	// deliver s1 2
	// deliver s2 1
}

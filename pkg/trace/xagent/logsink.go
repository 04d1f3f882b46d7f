package xagent

import (
	"context"
	"log/slog"

	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

// logSink 把段摘要写入日志，collector.kind=log 时使用。
type logSink struct {
	logger xlog.Logger
}

func newLogSink(l xlog.Logger) *logSink {
	return &logSink{logger: l.With(xlog.Component("xagent"))}
}

func (s *logSink) Name() string { return CollectorLog }

func (s *logSink) Send(ctx context.Context, seg xsegment.Segment) error {
	attrs := []slog.Attr{
		slog.String("trace_id", seg.TraceID),
		xlog.SegmentID(seg.SegmentID),
		xlog.Count(int64(len(seg.Spans))),
	}
	for _, sp := range seg.Spans {
		if sp.Type == xsegment.SpanTypeEntry {
			attrs = append(attrs, slog.String("endpoint", sp.OperationName))
			break
		}
	}
	s.logger.Info(ctx, "xagent: segment", attrs...)
	return nil
}

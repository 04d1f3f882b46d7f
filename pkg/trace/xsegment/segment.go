package xsegment

import "slices"

// =============================================================================
// 枚举
// =============================================================================

// SpanType Span 类型。
type SpanType uint8

const (
	_ SpanType = iota
	// SpanTypeEntry 入口 Span，由外部调用触发，是 Segment 的起点
	SpanTypeEntry
	// SpanTypeExit 出口 Span，包裹一次对外调用，必须携带 Peer
	SpanTypeExit
	// SpanTypeLocal 进程内 Span
	SpanTypeLocal
)

func (t SpanType) String() string {
	switch t {
	case SpanTypeEntry:
		return "Entry"
	case SpanTypeExit:
		return "Exit"
	case SpanTypeLocal:
		return "Local"
	default:
		return "Unknown"
	}
}

// SpanLayer Span 所在的协议层。
type SpanLayer uint8

const (
	_ SpanLayer = iota
	SpanLayerUnknown
	SpanLayerDatabase
	SpanLayerRPCFramework
	SpanLayerHTTP
	SpanLayerMQ
	SpanLayerCache
	SpanLayerFAAS
)

func (l SpanLayer) String() string {
	switch l {
	case SpanLayerUnknown:
		return "Unknown"
	case SpanLayerDatabase:
		return "Database"
	case SpanLayerRPCFramework:
		return "RPCFramework"
	case SpanLayerHTTP:
		return "Http"
	case SpanLayerMQ:
		return "MQ"
	case SpanLayerCache:
		return "Cache"
	case SpanLayerFAAS:
		return "FAAS"
	default:
		return "Invalid"
	}
}

// RefType Segment 引用类型。
type RefType uint8

const (
	_ RefType = iota
	// RefTypeCrossProcess 跨进程引用，由 sw8 头建立
	RefTypeCrossProcess
	// RefTypeCrossThread 跨线程引用
	RefTypeCrossThread
)

func (r RefType) String() string {
	switch r {
	case RefTypeCrossProcess:
		return "CrossProcess"
	case RefTypeCrossThread:
		return "CrossThread"
	default:
		return "Unknown"
	}
}

// =============================================================================
// 记录
// =============================================================================

// KeyValue 有序键值对，用于标签与日志内容。
type KeyValue struct {
	Key   string
	Value string
}

// Log 带时间戳的一组键值对。
type Log struct {
	// Time 毫秒时间戳
	Time int64
	Data []KeyValue
}

// Reference 将入口 Span 关联到上游调用方的出口 Span。
type Reference struct {
	Type                     RefType
	TraceID                  string
	ParentSegmentID          string
	ParentSpanID             int32
	ParentService            string
	ParentServiceInstance    string
	ParentEndpoint           string
	NetworkAddressUsedAtPeer string
}

// Span 已结束 Span 的传输记录。
type Span struct {
	SpanID       int32
	ParentSpanID int32
	// StartTime / EndTime 毫秒时间戳
	StartTime     int64
	EndTime       int64
	Refs          []Reference
	OperationName string
	Peer          string
	Type          SpanType
	Layer         SpanLayer
	ComponentID   int32
	IsError       bool
	Tags          []KeyValue
	Logs          []Log
	SkipAnalysis  bool
}

// Segment 一个进程内一次请求的全部已结束 Span。
type Segment struct {
	TraceID         string
	SegmentID       string
	Service         string
	ServiceInstance string
	Spans           []Span
	// IsSizeLimited 是否因体积限制截断过 Span，本库不截断，始终为 false
	IsSizeLimited bool
}

// Clone 深拷贝 Segment，返回值与原值不共享任何切片。
func (s Segment) Clone() Segment {
	out := s
	if s.Spans != nil {
		out.Spans = make([]Span, len(s.Spans))
		for i := range s.Spans {
			out.Spans[i] = s.Spans[i].Clone()
		}
	}
	return out
}

// Clone 深拷贝 Span。
func (s Span) Clone() Span {
	out := s
	out.Refs = slices.Clone(s.Refs)
	out.Tags = slices.Clone(s.Tags)
	if s.Logs != nil {
		out.Logs = make([]Log, len(s.Logs))
		for i, l := range s.Logs {
			out.Logs[i] = Log{Time: l.Time, Data: slices.Clone(l.Data)}
		}
	}
	return out
}

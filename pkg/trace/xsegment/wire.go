package xsegment

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// =============================================================================
// 错误定义
// =============================================================================

var (
	// ErrInvalidEnum 枚举值未设置或超出协议定义范围。
	ErrInvalidEnum = errors.New("xsegment: invalid enum value")

	// ErrMalformedWire 线格式数据损坏。
	ErrMalformedWire = errors.New("xsegment: malformed wire data")
)

// =============================================================================
// 枚举 <-> 线上整数
// 这是枚举与协议整数之间唯一的映射边界。
// =============================================================================

var spanTypeWire = map[SpanType]uint64{
	SpanTypeEntry: 0,
	SpanTypeExit:  1,
	SpanTypeLocal: 2,
}

var spanLayerWire = map[SpanLayer]uint64{
	SpanLayerUnknown:      0,
	SpanLayerDatabase:     1,
	SpanLayerRPCFramework: 2,
	SpanLayerHTTP:         3,
	SpanLayerMQ:           4,
	SpanLayerCache:        5,
	SpanLayerFAAS:         6,
}

var refTypeWire = map[RefType]uint64{
	RefTypeCrossProcess: 0,
	RefTypeCrossThread:  1,
}

func toWire[E comparable](m map[E]uint64, e E) (uint64, error) {
	v, ok := m[e]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEnum, e)
	}
	return v, nil
}

func fromWire[E comparable](m map[E]uint64, v uint64) (E, error) {
	for e, w := range m {
		if w == v {
			return e, nil
		}
	}
	var zero E
	return zero, fmt.Errorf("%w: wire value %d", ErrInvalidEnum, v)
}

// =============================================================================
// 字段号（skywalking/v3/Tracing.proto）
// =============================================================================

const (
	segTraceID         protowire.Number = 1
	segSegmentID       protowire.Number = 2
	segSpans           protowire.Number = 3
	segService         protowire.Number = 4
	segServiceInstance protowire.Number = 5
	segIsSizeLimited   protowire.Number = 6

	spanID            protowire.Number = 1
	spanParentSpanID  protowire.Number = 2
	spanStartTime     protowire.Number = 3
	spanEndTime       protowire.Number = 4
	spanRefs          protowire.Number = 5
	spanOperationName protowire.Number = 6
	spanPeer          protowire.Number = 7
	spanType          protowire.Number = 8
	spanLayer         protowire.Number = 9
	spanComponentID   protowire.Number = 10
	spanIsError       protowire.Number = 11
	spanTags          protowire.Number = 12
	spanLogs          protowire.Number = 13
	spanSkipAnalysis  protowire.Number = 14

	refType                  protowire.Number = 1
	refTraceID               protowire.Number = 2
	refParentSegmentID       protowire.Number = 3
	refParentSpanID          protowire.Number = 4
	refParentService         protowire.Number = 5
	refParentServiceInstance protowire.Number = 6
	refParentEndpoint        protowire.Number = 7
	refNetworkAddress        protowire.Number = 8

	kvKey   protowire.Number = 1
	kvValue protowire.Number = 2

	logTime protowire.Number = 1
	logData protowire.Number = 2
)

// schema 消息内已知字段的线类型，不在表中的字段按未知字段跳过。
type schema map[protowire.Number]protowire.Type

var (
	segSchema = schema{
		segTraceID: protowire.BytesType, segSegmentID: protowire.BytesType,
		segSpans: protowire.BytesType, segService: protowire.BytesType,
		segServiceInstance: protowire.BytesType, segIsSizeLimited: protowire.VarintType,
	}
	spanSchema = schema{
		spanID: protowire.VarintType, spanParentSpanID: protowire.VarintType,
		spanStartTime: protowire.VarintType, spanEndTime: protowire.VarintType,
		spanRefs: protowire.BytesType, spanOperationName: protowire.BytesType,
		spanPeer: protowire.BytesType, spanType: protowire.VarintType,
		spanLayer: protowire.VarintType, spanComponentID: protowire.VarintType,
		spanIsError: protowire.VarintType, spanTags: protowire.BytesType,
		spanLogs: protowire.BytesType, spanSkipAnalysis: protowire.VarintType,
	}
	refSchema = schema{
		refType: protowire.VarintType, refTraceID: protowire.BytesType,
		refParentSegmentID: protowire.BytesType, refParentSpanID: protowire.VarintType,
		refParentService: protowire.BytesType, refParentServiceInstance: protowire.BytesType,
		refParentEndpoint: protowire.BytesType, refNetworkAddress: protowire.BytesType,
	}
	kvSchema  = schema{kvKey: protowire.BytesType, kvValue: protowire.BytesType}
	logSchema = schema{logTime: protowire.VarintType, logData: protowire.BytesType}
)

// =============================================================================
// 编码
// proto3 语义：零值字段不写出。
// =============================================================================

// Marshal 将 Segment 编码为 SegmentObject 的 protobuf 线格式。
func Marshal(s Segment) ([]byte, error) {
	return AppendSegment(nil, s)
}

// AppendSegment 将 Segment 编码后追加到 b。
func AppendSegment(b []byte, s Segment) ([]byte, error) {
	b = appendString(b, segTraceID, s.TraceID)
	b = appendString(b, segSegmentID, s.SegmentID)
	for i := range s.Spans {
		sp, err := appendSpan(nil, &s.Spans[i])
		if err != nil {
			return nil, fmt.Errorf("span %d: %w", s.Spans[i].SpanID, err)
		}
		b = appendMessage(b, segSpans, sp)
	}
	b = appendString(b, segService, s.Service)
	b = appendString(b, segServiceInstance, s.ServiceInstance)
	b = appendBool(b, segIsSizeLimited, s.IsSizeLimited)
	return b, nil
}

func appendSpan(b []byte, s *Span) ([]byte, error) {
	st, err := toWire(spanTypeWire, s.Type)
	if err != nil {
		return nil, fmt.Errorf("span type: %w", err)
	}
	sl, err := toWire(spanLayerWire, s.Layer)
	if err != nil {
		return nil, fmt.Errorf("span layer: %w", err)
	}

	b = appendInt32(b, spanID, s.SpanID)
	b = appendInt32(b, spanParentSpanID, s.ParentSpanID)
	b = appendInt64(b, spanStartTime, s.StartTime)
	b = appendInt64(b, spanEndTime, s.EndTime)
	for i := range s.Refs {
		rb, err := appendRef(nil, &s.Refs[i])
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, spanRefs, rb)
	}
	b = appendString(b, spanOperationName, s.OperationName)
	b = appendString(b, spanPeer, s.Peer)
	b = appendVarint(b, spanType, st)
	b = appendVarint(b, spanLayer, sl)
	b = appendInt32(b, spanComponentID, s.ComponentID)
	b = appendBool(b, spanIsError, s.IsError)
	for _, kv := range s.Tags {
		b = appendMessage(b, spanTags, appendKV(nil, kv))
	}
	for _, l := range s.Logs {
		lb := appendInt64(nil, logTime, l.Time)
		for _, kv := range l.Data {
			lb = appendMessage(lb, logData, appendKV(nil, kv))
		}
		b = appendMessage(b, spanLogs, lb)
	}
	b = appendBool(b, spanSkipAnalysis, s.SkipAnalysis)
	return b, nil
}

func appendRef(b []byte, r *Reference) ([]byte, error) {
	rt, err := toWire(refTypeWire, r.Type)
	if err != nil {
		return nil, fmt.Errorf("ref type: %w", err)
	}
	b = appendVarint(b, refType, rt)
	b = appendString(b, refTraceID, r.TraceID)
	b = appendString(b, refParentSegmentID, r.ParentSegmentID)
	b = appendInt32(b, refParentSpanID, r.ParentSpanID)
	b = appendString(b, refParentService, r.ParentService)
	b = appendString(b, refParentServiceInstance, r.ParentServiceInstance)
	b = appendString(b, refParentEndpoint, r.ParentEndpoint)
	b = appendString(b, refNetworkAddress, r.NetworkAddressUsedAtPeer)
	return b, nil
}

// AppendKeyValue 追加 KeyStringValuePair 消息体（不含外层 tag），供同协议族的其他消息复用。
func AppendKeyValue(b []byte, kv KeyValue) []byte {
	return appendKV(b, kv)
}

// UnmarshalKeyValue 解码 KeyStringValuePair 消息体。
func UnmarshalKeyValue(b []byte) (KeyValue, error) {
	return unmarshalKV(b)
}

func appendKV(b []byte, kv KeyValue) []byte {
	b = appendString(b, kvKey, kv.Key)
	return appendString(b, kvValue, kv.Value)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// int32 负数按 proto3 规则符号扩展为 64 位后编码
func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, uint64(int64(v)))
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	return appendVarint(b, num, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

// =============================================================================
// 解码
// =============================================================================

// Unmarshal 解码 SegmentObject 的 protobuf 线格式。
func Unmarshal(b []byte) (Segment, error) {
	var s Segment
	err := walk(b, segSchema, func(num protowire.Number, v field) error {
		switch num {
		case segTraceID:
			s.TraceID = string(v.bytes)
		case segSegmentID:
			s.SegmentID = string(v.bytes)
		case segSpans:
			sp, err := unmarshalSpan(v.bytes)
			if err != nil {
				return err
			}
			s.Spans = append(s.Spans, sp)
		case segService:
			s.Service = string(v.bytes)
		case segServiceInstance:
			s.ServiceInstance = string(v.bytes)
		case segIsSizeLimited:
			s.IsSizeLimited = protowire.DecodeBool(v.varint)
		}
		return nil
	})
	if err != nil {
		return Segment{}, err
	}
	return s, nil
}

func unmarshalSpan(b []byte) (Span, error) {
	// 协议零值即 Entry / Unknown 层，字段缺省时需显式补齐
	s := Span{Type: SpanTypeEntry, Layer: SpanLayerUnknown}
	err := walk(b, spanSchema, func(num protowire.Number, v field) error {
		var err error
		switch num {
		case spanID:
			s.SpanID = int32(v.varint)
		case spanParentSpanID:
			s.ParentSpanID = int32(v.varint)
		case spanStartTime:
			s.StartTime = int64(v.varint)
		case spanEndTime:
			s.EndTime = int64(v.varint)
		case spanRefs:
			var r Reference
			if r, err = unmarshalRef(v.bytes); err == nil {
				s.Refs = append(s.Refs, r)
			}
		case spanOperationName:
			s.OperationName = string(v.bytes)
		case spanPeer:
			s.Peer = string(v.bytes)
		case spanType:
			s.Type, err = fromWire(spanTypeWire, v.varint)
		case spanLayer:
			s.Layer, err = fromWire(spanLayerWire, v.varint)
		case spanComponentID:
			s.ComponentID = int32(v.varint)
		case spanIsError:
			s.IsError = protowire.DecodeBool(v.varint)
		case spanTags:
			var kv KeyValue
			if kv, err = unmarshalKV(v.bytes); err == nil {
				s.Tags = append(s.Tags, kv)
			}
		case spanLogs:
			var l Log
			if l, err = unmarshalLog(v.bytes); err == nil {
				s.Logs = append(s.Logs, l)
			}
		case spanSkipAnalysis:
			s.SkipAnalysis = protowire.DecodeBool(v.varint)
		}
		return err
	})
	return s, err
}

func unmarshalRef(b []byte) (Reference, error) {
	r := Reference{Type: RefTypeCrossProcess}
	err := walk(b, refSchema, func(num protowire.Number, v field) error {
		var err error
		switch num {
		case refType:
			r.Type, err = fromWire(refTypeWire, v.varint)
		case refTraceID:
			r.TraceID = string(v.bytes)
		case refParentSegmentID:
			r.ParentSegmentID = string(v.bytes)
		case refParentSpanID:
			r.ParentSpanID = int32(v.varint)
		case refParentService:
			r.ParentService = string(v.bytes)
		case refParentServiceInstance:
			r.ParentServiceInstance = string(v.bytes)
		case refParentEndpoint:
			r.ParentEndpoint = string(v.bytes)
		case refNetworkAddress:
			r.NetworkAddressUsedAtPeer = string(v.bytes)
		}
		return err
	})
	return r, err
}

func unmarshalKV(b []byte) (KeyValue, error) {
	var kv KeyValue
	err := walk(b, kvSchema, func(num protowire.Number, v field) error {
		switch num {
		case kvKey:
			kv.Key = string(v.bytes)
		case kvValue:
			kv.Value = string(v.bytes)
		}
		return nil
	})
	return kv, err
}

func unmarshalLog(b []byte) (Log, error) {
	var l Log
	err := walk(b, logSchema, func(num protowire.Number, v field) error {
		switch num {
		case logTime:
			l.Time = int64(v.varint)
		case logData:
			kv, err := unmarshalKV(v.bytes)
			if err != nil {
				return err
			}
			l.Data = append(l.Data, kv)
		}
		return nil
	})
	return l, err
}

// field 单个字段的值；varint 与 bytes 按线类型二选一
type field struct {
	varint uint64
	bytes  []byte
}

// walk 逐字段遍历消息。已知字段的线类型必须与 sch 一致，
// 未知字段（含 fixed32/fixed64/group）跳过。
func walk(b []byte, sch schema, fn func(protowire.Number, field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedWire, protowire.ParseError(n))
		}
		b = b[n:]

		if want, known := sch[num]; known && want != typ {
			return fmt.Errorf("%w: field %d has wire type %d, want %d", ErrMalformedWire, num, typ, want)
		}

		var f field
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedWire, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedWire, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(num, f); err != nil {
			return err
		}
	}
	return nil
}

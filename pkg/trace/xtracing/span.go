package xtracing

import (
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

// ComponentID 本库在 SkyWalking 组件表中使用的组件号。
const ComponentID int32 = 11000

// Span 一段有起止时间的操作。
//
// 通过 TracingContext 创建，调用方独占持有；关闭后不可修改。
type Span struct {
	owner  *TracingContext
	rec    xsegment.Span
	closed bool
}

func newSpan(owner *TracingContext, id int32, name, peer string, typ xsegment.SpanType) *Span {
	return &Span{
		owner: owner,
		rec: xsegment.Span{
			SpanID:        id,
			ParentSpanID:  id - 1,
			StartTime:     owner.now(),
			OperationName: name,
			Peer:          peer,
			Type:          typ,
			Layer:         xsegment.SpanLayerHTTP,
			ComponentID:   ComponentID,
		},
	}
}

// ID 返回 Span ID。
func (s *Span) ID() int32 { return s.rec.SpanID }

// ParentID 返回父 Span ID，入口 Span 为 -1。
func (s *Span) ParentID() int32 { return s.rec.ParentSpanID }

// Type 返回 Span 类型。
func (s *Span) Type() xsegment.SpanType { return s.rec.Type }

// OperationName 返回操作名。
func (s *Span) OperationName() string { return s.rec.OperationName }

// Peer 返回远端地址，入口 Span 为空。
func (s *Span) Peer() string { return s.rec.Peer }

// StartTime 返回开始时间（毫秒）。
func (s *Span) StartTime() int64 { return s.rec.StartTime }

// EndTime 返回结束时间（毫秒），未关闭时为 0。
func (s *Span) EndTime() int64 { return s.rec.EndTime }

// IsClosed 报告 Span 是否已关闭。
func (s *Span) IsClosed() bool { return s.closed }

// Record 返回当前状态的深拷贝。
func (s *Span) Record() xsegment.Span { return s.rec.Clone() }

// AddTag 追加一个标签。标签有序且允许重复键。
func (s *Span) AddTag(key, value string) error {
	if s.closed {
		return ErrSpanClosed
	}
	s.rec.Tags = append(s.rec.Tags, xsegment.KeyValue{Key: key, Value: value})
	return nil
}

// AddLog 以当前时间追加一条日志。
func (s *Span) AddLog(fields ...xsegment.KeyValue) error {
	if s.closed {
		return ErrSpanClosed
	}
	data := make([]xsegment.KeyValue, len(fields))
	copy(data, fields)
	s.rec.Logs = append(s.rec.Logs, xsegment.Log{Time: s.owner.now(), Data: data})
	return nil
}

// SetError 标记 Span 是否出错。
func (s *Span) SetError(isError bool) error {
	if s.closed {
		return ErrSpanClosed
	}
	s.rec.IsError = isError
	return nil
}

// SetOperationName 修改操作名，常用于路由匹配完成后替换为路由模板。
func (s *Span) SetOperationName(name string) error {
	if s.closed {
		return ErrSpanClosed
	}
	s.rec.OperationName = name
	return nil
}

// SetLayer 修改协议层，默认为 HTTP。
func (s *Span) SetLayer(layer xsegment.SpanLayer) error {
	if s.closed {
		return ErrSpanClosed
	}
	s.rec.Layer = layer
	return nil
}

// SetComponentID 修改组件号，默认为 [ComponentID]。
func (s *Span) SetComponentID(id int32) error {
	if s.closed {
		return ErrSpanClosed
	}
	s.rec.ComponentID = id
	return nil
}

func (s *Span) close(endTime int64) {
	s.rec.EndTime = endTime
	s.closed = true
}

package xtracing

import "errors"

var (
	// ErrDuplicateEntrySpan 同一 TracingContext 已创建过入口 Span。
	ErrDuplicateEntrySpan = errors.New("xtracing: entry span already exists")

	// ErrMissingEntrySpan 尚未创建入口 Span。
	ErrMissingEntrySpan = errors.New("xtracing: entry span does not exist")

	// ErrEmptyPeer 出口 Span 缺少远端地址。
	ErrEmptyPeer = errors.New("xtracing: exit span requires a remote peer")

	// ErrSpanClosed Span 已关闭，不可再修改或重复关闭。
	ErrSpanClosed = errors.New("xtracing: span already closed")

	// ErrForeignSpan Span 不属于当前 TracingContext。
	ErrForeignSpan = errors.New("xtracing: span belongs to another tracing context")

	// ErrNilSpan Span 为 nil。
	ErrNilSpan = errors.New("xtracing: nil span")
)

package xsw8

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// HeaderName 传播头名称。HTTP 头不区分大小写；gRPC metadata 键要求小写。
const HeaderName = "sw8"

// fieldCount sw8 固定字段数
const fieldCount = 8

// =============================================================================
// 错误定义
// =============================================================================

var (
	// ErrMalformedHeader 字段数不是 8。
	ErrMalformedHeader = errors.New("xsw8: malformed header, it must have 8 fields")

	// ErrInvalidSampleFlag 第 0 个字段不是 "0" 或 "1"。
	ErrInvalidSampleFlag = errors.New("xsw8: invalid sample flag")

	// ErrInvalidSpanID 第 3 个字段不是非负十进制整数（uint32）。
	ErrInvalidSpanID = errors.New("xsw8: invalid parent span id")

	// ErrInvalidEncoding base64 字段解码失败，或解码结果不是合法 UTF-8。
	ErrInvalidEncoding = errors.New("xsw8: invalid field encoding")
)

// =============================================================================
// Context
// =============================================================================

// MaxSpanID Decode 接受的最大父 Span ID，与段内 int32 SpanId 一致。
const MaxSpanID = math.MaxInt32

// Context 是 sw8 头的解码形式，值类型，解码后不可变。
type Context struct {
	// Sample 下游是否应继续采样并上报
	Sample bool
	// ParentTraceID 整条链路的 TraceId
	ParentTraceID string
	// ParentSegmentID 发起调用的上游 Segment
	ParentSegmentID string
	// ParentSpanID 上游发起本次调用的 Span，取值 0~[MaxSpanID]
	ParentSpanID uint32
	// ParentService 上游服务名
	ParentService string
	// ParentServiceInstance 上游实例名
	ParentServiceInstance string
	// DestinationEndpoint 上游请求的逻辑端点（如 URL 路径）
	DestinationEndpoint string
	// DestinationAddress 上游访问本服务使用的地址
	DestinationAddress string
}

// =============================================================================
// 编解码
// =============================================================================

// Encode 将 c 序列化为 sw8 头字符串。
func Encode(c Context) string {
	sample := "0"
	if c.Sample {
		sample = "1"
	}

	var b strings.Builder
	b.Grow(128)
	b.WriteString(sample)
	for _, f := range []string{
		b64(c.ParentTraceID),
		b64(c.ParentSegmentID),
		strconv.FormatUint(uint64(c.ParentSpanID), 10),
		b64(c.ParentService),
		b64(c.ParentServiceInstance),
		b64(c.DestinationEndpoint),
		b64(c.DestinationAddress),
	} {
		b.WriteByte('-')
		b.WriteString(f)
	}
	return b.String()
}

// Decode 解析 sw8 头字符串。
//
// 返回的错误可用 errors.Is 匹配 [ErrMalformedHeader]、[ErrInvalidSampleFlag]、
// [ErrInvalidSpanID]、[ErrInvalidEncoding]；出错时 Context 为零值。
func Decode(header string) (Context, error) {
	parts := strings.Split(header, "-")
	if len(parts) != fieldCount {
		return Context{}, fmt.Errorf("%w: got %d", ErrMalformedHeader, len(parts))
	}

	var c Context
	switch parts[0] {
	case "1":
		c.Sample = true
	case "0":
	default:
		return Context{}, fmt.Errorf("%w: %q", ErrInvalidSampleFlag, parts[0])
	}

	// 段内 SpanId 为 int32，超出范围的值会在引用中变为负数
	spanID, err := strconv.ParseUint(parts[3], 10, 31)
	if err != nil {
		return Context{}, fmt.Errorf("%w: %q", ErrInvalidSpanID, parts[3])
	}
	c.ParentSpanID = uint32(spanID)

	targets := [...]struct {
		idx int
		dst *string
	}{
		{1, &c.ParentTraceID},
		{2, &c.ParentSegmentID},
		{4, &c.ParentService},
		{5, &c.ParentServiceInstance},
		{6, &c.DestinationEndpoint},
		{7, &c.DestinationAddress},
	}
	for _, tg := range targets {
		v, err := unb64(parts[tg.idx])
		if err != nil {
			return Context{}, fmt.Errorf("%w: field %d: %w", ErrInvalidEncoding, tg.idx, err)
		}
		*tg.dst = v
	}
	return c, nil
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func unb64(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", errors.New("not valid utf-8")
	}
	return string(raw), nil
}

package xsw8

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

// =============================================================================
// HTTP Header
// =============================================================================

// ExtractFromHTTPHeader 从 HTTP Header 读取并解码 sw8。
//
// ok 表示头是否存在（去除空白后非空）；头存在但解码失败时返回 ok=true 和错误，
// 调用方据此区分"没有上游"与"上游头损坏"。
func ExtractFromHTTPHeader(h http.Header) (c Context, ok bool, err error) {
	if h == nil {
		return Context{}, false, nil
	}
	return decodeValue(h.Get(HeaderName))
}

// InjectToHTTPHeader 将已编码的 sw8 头写入 HTTP Header，覆盖已有值。
func InjectToHTTPHeader(h http.Header, header string) {
	if h == nil || header == "" {
		return
	}
	h.Set(HeaderName, header)
}

// =============================================================================
// gRPC Metadata
// =============================================================================

// ExtractFromMetadata 从 gRPC Metadata 读取并解码 sw8，语义同 ExtractFromHTTPHeader。
func ExtractFromMetadata(md metadata.MD) (c Context, ok bool, err error) {
	if md == nil {
		return Context{}, false, nil
	}
	values := md.Get(HeaderName)
	if len(values) == 0 {
		return Context{}, false, nil
	}
	return decodeValue(values[0])
}

// ExtractFromIncomingContext 从 incoming context 读取并解码 sw8。
func ExtractFromIncomingContext(ctx context.Context) (c Context, ok bool, err error) {
	md, found := metadata.FromIncomingContext(ctx)
	if !found {
		return Context{}, false, nil
	}
	return ExtractFromMetadata(md)
}

// InjectToOutgoingContext 将 sw8 头写入 outgoing metadata。
// 复制已有 metadata 后使用 Set 覆盖，多次调用不会产生重复值。
func InjectToOutgoingContext(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.New(nil)
	}
	md.Set(HeaderName, header)
	return metadata.NewOutgoingContext(ctx, md)
}

func decodeValue(v string) (Context, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Context{}, false, nil
	}
	c, err := Decode(v)
	return c, true, err
}

// Package xsw8 实现 SkyWalking v3 跨进程传播头（sw8）的编解码。
//
// # 格式
//
// sw8 是单个 ASCII 字符串，由 8 个以 '-' 分隔的字段组成，顺序固定：
//
//	<sample>-<trace_id>-<segment_id>-<span_id>-<service>-<instance>-<endpoint>-<address>
//
// 其中 sample 为 "0" 或 "1"，span_id 为十进制非负整数，其余 6 个字段为
// 标准 base64（带填充）编码的 UTF-8 文本。base64 字母表不含 '-'，因此按 '-' 切分是无歧义的。
//
// # 纯函数
//
// [Encode] 与 [Decode] 不做任何 I/O，也不修改输入，适合表驱动测试与 Fuzz。
// [Decode] 严格且完整：任何字段不合法都会返回错误，不会返回部分结果。
// 调用方决定如何降级（通常是丢弃上游上下文，开启新的追踪）。
//
// # 载体
//
// HTTP 与 gRPC 的载体辅助函数负责在请求头 / metadata 中读写 [HeaderName]：
//
//	c, ok, err := xsw8.ExtractFromHTTPHeader(r.Header)
//	xsw8.InjectToHTTPHeader(req.Header, header)
//	ctx = xsw8.InjectToOutgoingContext(ctx, header)
package xsw8

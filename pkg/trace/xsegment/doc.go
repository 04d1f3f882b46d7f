// Package xsegment 定义追踪段（Segment）的传输记录及其线上编码。
//
// Segment 是一个进程内一次请求产生的全部已结束 Span 的集合，是交给上报层的最小单元。
// 本包的类型是纯数据：不含时钟、不含状态机，由 xtracing 组装、由 xreporter 投递。
//
// # 枚举
//
// [SpanType]、[SpanLayer]、[RefType] 是封闭枚举，零值表示"未设置"且无法编码。
// 它们与 SkyWalking v3 协议中小整数的映射只存在于 wire.go 一处。
//
// # 编码
//
// [Marshal] / [Unmarshal] 按 skywalking/v3/Tracing.proto 的字段号以 protobuf
// 线格式读写 SegmentObject，可直接作为 gRPC 消息体或 Kafka 消息值，
// 与 SkyWalking OAP 兼容。未知字段在解码时跳过。
package xsegment

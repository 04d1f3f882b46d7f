// Package xcollector 通过 gRPC 客户端流把追踪段发送到 SkyWalking 兼容的收集器。
//
// 方法为 /skywalking.v3.TraceSegmentReportService/collect：客户端流式发送
// SegmentObject，收集器在流结束时回复一个 Commands。
// 消息编解码使用 xsegment 的 protowire 实现，不依赖生成代码。
//
// Client 实现 xreporter.StreamSink：Send 为每个段开一条流，SendBatch 在一条流中发送多个段。
// Server 在 *grpc.Server 上注册同一服务，把收到的段交给 Handler，用于测试与演示收集器。
package xcollector

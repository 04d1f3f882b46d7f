// Package xkafka 通过 Kafka 传输追踪段。
//
// Sink 把段编码为 SegmentObject 的 protobuf 线格式，以段 ID 为 key 写入主题
// （默认 skywalking-segments，与 SkyWalking Kafka reporter 一致），并等待投递报告。
// Sink 实现 xreporter.StreamSink，可直接交给 xreporter.New。
//
// Consumer 从同一主题读取并解码段，用于演示收集器或转发。
// 偏移量在处理成功后通过 StoreMessage 存储，Close 时提交（at-least-once）。
//
// 底层使用 confluent-kafka-go/v2，需要 cgo。
package xkafka

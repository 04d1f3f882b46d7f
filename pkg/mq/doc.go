// Package mq 提供消息队列相关的子包。
//
// 子包列表：
//   - xkafka: 段的 Kafka 投递（Sink）与消费（Consumer）
//
// 设计原则：
//   - 消息体统一使用段的 protobuf 线格式，与 gRPC 收集器一致
//   - Sink 满足 xreporter.Sink，可直接交给 Reporter 排空
//   - 消费端只在处理成功后提交位点，格式错误的消息跳过
package mq

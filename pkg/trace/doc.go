// Package trace 提供 SkyWalking 兼容的链路追踪核心。
//
// 子包列表：
//   - xsegment: 段与 Span 数据模型及 protobuf 线格式
//   - xsw8: sw8 传播头编解码与 HTTP/gRPC 载体
//   - xtracing: TracingContext 与 Span 生命周期
//   - xreporter: 有界队列与单消费者排空的段上报器
//   - xcollector: gRPC 收集器客户端与服务端
//   - xagent: 进程级入口，组装配置、上报链路与 HTTP/gRPC 中间件
//
// 依赖方向自上而下：xagent 依赖其余子包，xsegment 不依赖任何子包。
package trace

// Package xagent 按配置组装追踪管线，并提供 HTTP 与 gRPC 的埋点入口。
//
// Agent 持有本进程身份（服务名与实例名）、ID 生成器、时钟与 Reporter。
// 入站请求通过 HTTPMiddleware 或 UnaryServerInterceptor 创建入口 Span，
// 出站请求通过 Transport 或 UnaryClientInterceptor 创建出口 Span 并注入 sw8 头。
// 请求结束时 Segment 提交给 Reporter，由 Run 中的后台任务投递。
//
// 一个 TracingContext 只属于一个请求 goroutine。并发发起的出站调用
// 应各自在新的 TracingContext 中完成，不能共享入口请求的上下文。
//
// 生命周期：
//
//	a, err := xagent.New(cfg)
//	go a.Run(ctx)      // ctx 结束后关闭队列并排空
//	defer a.Close()    // Run 返回后释放 sink 与日志文件
package xagent

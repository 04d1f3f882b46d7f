// Package xrun 管理进程内长期运行任务的启动与协调关闭。
//
// Group 基于 errgroup：任一任务返回错误，其余任务的 ctx 随之取消。
// Run 额外监听退出信号，收到信号后以 *SignalError 作为退出原因。
//
//	err := xrun.Run(ctx, nil, func(g *xrun.Group) {
//		g.Go("reporter", rep.Run)
//		g.Go("grpc", xrun.GRPCServer(srv, lis, 5*time.Second))
//	})
//	if errors.Is(err, xrun.ErrSignal) {
//		// 正常退出
//	}
package xrun

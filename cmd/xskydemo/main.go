// xskydemo 演示跨进程链路：producer 收到 /ping 后调用 consumer 的 /pong，
// 两端各自上报一个段，collector 接收并打印段。
//
// 用法:
//
//	xskydemo [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config              Agent 配置文件（YAML/JSON），支持热更新日志级别
//	--service                 服务名，覆盖配置文件
//	--collector               投递方式：grpc、kafka 或 log
//	--collector-address       gRPC 收集器地址
//	--brokers                 Kafka broker 列表
//	--log-level               日志级别
//
// 命令:
//
//	producer     在 --listen（默认 :8081）提供 GET /ping
//	consumer     在 --listen（默认 :8082）提供 GET /pong
//	collector    在 --listen（默认 :11800）接收 gRPC 段，可选消费 Kafka
//
// 退出码:
//
//	0: 正常退出或收到 SIGINT/SIGTERM
//	1: 运行失败
//	2: 参数错误
//
// 示例:
//
//	xskydemo collector
//	xskydemo --service consumer consumer
//	xskydemo --service producer producer --downstream http://127.0.0.1:8082/pong
//	curl http://127.0.0.1:8081/ping
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xsky/pkg/lifecycle/xrun"
	"github.com/omeyang/xsky/pkg/trace/xagent"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xskydemo",
		Usage:   "链路追踪 producer/consumer/collector 演示",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Agent 配置文件路径",
			},
			&cli.StringFlag{
				Name:  flagService,
				Usage: "服务名",
			},
			&cli.StringFlag{
				Name:  flagCollector,
				Usage: "投递方式 (grpc/kafka/log)",
			},
			&cli.StringFlag{
				Name:  flagCollectorAddress,
				Usage: "gRPC 收集器地址",
			},
			&cli.StringSliceFlag{
				Name:  flagBrokers,
				Usage: "Kafka broker 列表",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "日志级别 (debug/info/warn/error)",
			},
		},
		Commands: []*cli.Command{
			producerCommand(),
			consumerCommand(),
			collectorCommand(),
		},
		// 设计决策: 退出码统一由 run() 映射，禁止 urfave/cli 直接 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run(args []string) int {
	err := createApp().Run(context.Background(), args)
	switch {
	case err == nil, errors.Is(err, xrun.ErrSignal):
		return 0
	case errors.Is(err, xagent.ErrEmptyService),
		errors.Is(err, xagent.ErrUnknownCollector),
		errors.Is(err, xagent.ErrEmptyAddress),
		errors.Is(err, xagent.ErrNoBrokers),
		errors.Is(err, xagent.ErrUnknownOverflow),
		errors.Is(err, xagent.ErrUnknownIDKind),
		errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
}

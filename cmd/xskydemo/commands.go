package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/urfave/cli/v3"
	"google.golang.org/grpc"

	"github.com/omeyang/xsky/pkg/config/xconf"
	"github.com/omeyang/xsky/pkg/lifecycle/xrun"
	"github.com/omeyang/xsky/pkg/mq/xkafka"
	"github.com/omeyang/xsky/pkg/observability/xlog"
	"github.com/omeyang/xsky/pkg/trace/xagent"
	"github.com/omeyang/xsky/pkg/trace/xcollector"
	"github.com/omeyang/xsky/pkg/trace/xsegment"
)

const (
	flagConfig           = "config"
	flagService          = "service"
	flagCollector        = "collector"
	flagCollectorAddress = "collector-address"
	flagBrokers          = "brokers"
	flagLogLevel         = "log-level"
	flagListen           = "listen"
	flagDownstream       = "downstream"
	flagTopic            = "topic"
	flagGroup            = "group"
)

// shutdownTimeout 服务端优雅关闭的最长等待时间。
const shutdownTimeout = 5 * time.Second

var errUsage = errors.New("xskydemo: invalid argument")

func producerCommand() *cli.Command {
	return &cli.Command{
		Name:  "producer",
		Usage: "提供 GET /ping，并调用下游 /pong",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagListen, Usage: "监听地址", Value: ":8081"},
			&cli.StringFlag{Name: flagDownstream, Usage: "下游 /pong 地址", Value: "http://127.0.0.1:8082/pong"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			downstream := cmd.String(flagDownstream)
			if downstream == "" {
				return fmt.Errorf("%w: --%s is empty", errUsage, flagDownstream)
			}
			return serve(ctx, cmd, "producer", func(a *xagent.Agent) http.Handler {
				client := &http.Client{Transport: a.Transport(nil), Timeout: 10 * time.Second}
				return pingHandler(client, downstream)
			})
		},
	}
}

func consumerCommand() *cli.Command {
	return &cli.Command{
		Name:  "consumer",
		Usage: "提供 GET /pong",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagListen, Usage: "监听地址", Value: ":8082"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, cmd, "consumer", func(*xagent.Agent) http.Handler {
				return pongHandler()
			})
		},
	}
}

func collectorCommand() *cli.Command {
	return &cli.Command{
		Name:  "collector",
		Usage: "接收 gRPC 上报的段并打印，可选同时消费 Kafka",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagListen, Usage: "gRPC 监听地址", Value: ":11800"},
			&cli.StringFlag{Name: flagTopic, Usage: "Kafka topic", Value: xkafka.DefaultTopic},
			&cli.StringFlag{Name: flagGroup, Usage: "Kafka 消费组", Value: "xskydemo-collector"},
		},
		Action: runCollector,
	}
}

// loadAgentConfig 读取配置文件（可选）并应用命令行覆盖。
// 未指定配置文件时返回的 *xconf.Config 为 nil。
func loadAgentConfig(cmd *cli.Command, defaultService string) (xagent.Config, *xconf.Config, error) {
	var (
		cfg xagent.Config
		src *xconf.Config
		err error
	)
	if path := cmd.String(flagConfig); path != "" {
		cfg, src, err = xagent.LoadConfig(path)
	} else {
		cfg, err = xagent.ParseConfig(nil, xconf.FormatYAML)
	}
	if err != nil {
		return xagent.Config{}, nil, err
	}

	if cmd.IsSet(flagService) || cfg.Service == "" {
		cfg.Service = cmd.String(flagService)
	}
	if cfg.Service == "" {
		cfg.Service = defaultService
	}
	if cmd.IsSet(flagCollector) {
		cfg.Collector.Kind = cmd.String(flagCollector)
	}
	if cmd.IsSet(flagCollectorAddress) {
		cfg.Collector.Address = cmd.String(flagCollectorAddress)
	}
	if cmd.IsSet(flagBrokers) {
		cfg.Kafka.Brokers = cmd.StringSlice(flagBrokers)
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.Log.Level = cmd.String(flagLogLevel)
	}
	return cfg, src, nil
}

// serve 启动 Agent 与 HTTP 服务，直到收到信号。
// HTTP 服务先停，随后 Agent 排空队列，保证关闭期间完成的请求也能上报。
func serve(ctx context.Context, cmd *cli.Command, defaultService string, build func(a *xagent.Agent) http.Handler) (err error) {
	cfg, src, err := loadAgentConfig(cmd, defaultService)
	if err != nil {
		return err
	}
	a, err := xagent.New(cfg)
	if err != nil {
		return err
	}
	if src != nil {
		w, werr := a.WatchConfig(src)
		if werr != nil {
			a.Logger().Warn(ctx, "xskydemo: config watch disabled", xlog.Err(werr))
		} else {
			defer func() { err = errors.Join(err, w.Stop()) }()
		}
	}

	agentCtx, stopAgent := context.WithCancel(context.WithoutCancel(ctx))
	agentDone := make(chan error, 1)
	go func() { agentDone <- a.Run(agentCtx) }()

	srv := &http.Server{
		Addr:              cmd.String(flagListen),
		Handler:           a.HTTPMiddleware(build(a)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.Logger().Info(ctx, "xskydemo: listening", xlog.Address(srv.Addr))
	runErr := xrun.Run(ctx, []xrun.Option{xrun.WithName(cfg.Service), xrun.WithLogger(a.Logger())}, func(g *xrun.Group) {
		g.Go("http", xrun.HTTPServer(srv, shutdownTimeout))
	})

	stopAgent()
	return errors.Join(runErr, <-agentDone, a.Close())
}

func runCollector(ctx context.Context, cmd *cli.Command) (err error) {
	logger, cleanup, err := xlog.New().SetLevelString(cmd.String(flagLogLevel)).Build()
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	handle := segmentLogger(logger)
	srv, err := xcollector.NewServer(handle, xcollector.WithServerLogger(logger))
	if err != nil {
		return err
	}
	gs := grpc.NewServer(xcollector.ServerCodec())
	srv.Register(gs)

	lis, err := net.Listen("tcp", cmd.String(flagListen))
	if err != nil {
		return err
	}

	var consumer *xkafka.Consumer
	if brokers := cmd.StringSlice(flagBrokers); len(brokers) > 0 {
		consumer, err = xkafka.NewConsumer(&kafka.ConfigMap{
			"bootstrap.servers": strings.Join(brokers, ","),
			"group.id":          cmd.String(flagGroup),
			"auto.offset.reset": "earliest",
		}, xkafka.WithConsumerTopic(cmd.String(flagTopic)), xkafka.WithConsumerLogger(logger))
		if err != nil {
			_ = lis.Close()
			return err
		}
		defer func() { err = errors.Join(err, consumer.Close()) }()
	}

	logger.Info(ctx, "xskydemo: collector listening", xlog.Address(lis.Addr().String()))
	return xrun.Run(ctx, []xrun.Option{xrun.WithName("collector"), xrun.WithLogger(logger)}, func(g *xrun.Group) {
		g.Go("grpc", xrun.GRPCServer(gs, lis, shutdownTimeout))
		if consumer != nil {
			g.Go("kafka", func(ctx context.Context) error {
				return consumer.Run(ctx, xkafka.SegmentHandler(handle))
			})
		}
		g.Go("stats", xrun.Ticker(30*time.Second, func(ctx context.Context) error {
			logger.Info(ctx, "xskydemo: collector stats", slog.Uint64("received", srv.Received()))
			return nil
		}))
	})
}

// segmentLogger 把收到的段逐条写入日志。
func segmentLogger(logger xlog.Logger) xcollector.Handler {
	return func(ctx context.Context, seg xsegment.Segment) error {
		attrs := []slog.Attr{
			slog.String("trace_id", seg.TraceID),
			xlog.SegmentID(seg.SegmentID),
			xlog.Service(seg.Service),
			xlog.Instance(seg.ServiceInstance),
			xlog.Count(int64(len(seg.Spans))),
		}
		for _, sp := range seg.Spans {
			if len(sp.Refs) > 0 {
				attrs = append(attrs, slog.String("parent_segment_id", sp.Refs[0].ParentSegmentID))
				break
			}
		}
		logger.Info(ctx, "xskydemo: segment received", attrs...)
		return nil
	}
}

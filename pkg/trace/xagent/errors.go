package xagent

import "errors"

var (
	// ErrEmptyService 未配置服务名。
	ErrEmptyService = errors.New("xagent: empty service name")
	// ErrUnknownCollector collector.kind 不是 grpc、kafka 或 log。
	ErrUnknownCollector = errors.New("xagent: unknown collector kind")
	// ErrEmptyAddress gRPC collector 未配置地址。
	ErrEmptyAddress = errors.New("xagent: empty collector address")
	// ErrNoBrokers Kafka collector 未配置 broker。
	ErrNoBrokers = errors.New("xagent: no kafka brokers")
	// ErrUnknownOverflow reporter.overflow 不是 drop 或 block。
	ErrUnknownOverflow = errors.New("xagent: unknown overflow policy")
	// ErrUnknownIDKind ids 不是 uuid 或 sonyflake。
	ErrUnknownIDKind = errors.New("xagent: unknown id generator")
	// ErrNilAgent 在 nil Agent 上调用。
	ErrNilAgent = errors.New("xagent: nil agent")
)

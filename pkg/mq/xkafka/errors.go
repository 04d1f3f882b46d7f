package xkafka

import "errors"

var (
	// ErrNilConfig 配置为空。
	ErrNilConfig = errors.New("xkafka: nil config")
	// ErrClosed 已关闭。
	ErrClosed = errors.New("xkafka: closed")
	// ErrNilHandler 处理函数为空。
	ErrNilHandler = errors.New("xkafka: nil handler")
	// ErrFlushTimeout 关闭时仍有消息未发送。
	ErrFlushTimeout = errors.New("xkafka: flush timeout")
	// ErrUnexpectedEvent 投递通道收到非 *kafka.Message 事件。
	ErrUnexpectedEvent = errors.New("xkafka: unexpected delivery event")
)

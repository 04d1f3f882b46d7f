package xkafka

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// DefaultTopic 段主题默认值。
const DefaultTopic = "skywalking-segments"

// HeaderTraceID 消息头中携带追踪 ID 的键。
const HeaderTraceID = "trace_id"

// cloneConfig 复制配置，避免修改调用方传入的 ConfigMap。
func cloneConfig(config *kafka.ConfigMap) (*kafka.ConfigMap, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	cloned := &kafka.ConfigMap{}
	for k, v := range *config {
		if err := cloned.SetKey(k, v); err != nil {
			return nil, fmt.Errorf("xkafka: clone config key %q: %w", k, err)
		}
	}
	return cloned, nil
}

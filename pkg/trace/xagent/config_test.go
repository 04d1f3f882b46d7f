package xagent_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsky/pkg/config/xconf"
	"github.com/omeyang/xsky/pkg/trace/xagent"
	"github.com/omeyang/xsky/pkg/trace/xreporter"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := xagent.ParseConfig([]byte("service: checkout\n"), xconf.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Service)
	assert.Equal(t, xagent.CollectorGRPC, cfg.Collector.Kind)
	assert.Equal(t, "127.0.0.1:11800", cfg.Collector.Address)
	assert.Equal(t, "skywalking-segments", cfg.Kafka.Topic)
	assert.Equal(t, xreporter.DefaultQueueSize, cfg.Reporter.QueueSize)
	assert.Equal(t, "drop", cfg.Reporter.Overflow)
	assert.Equal(t, 10*time.Second, cfg.Reporter.SendTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestParseConfig_Overrides(t *testing.T) {
	t.Setenv("XSKY_REPORTER__OVERFLOW", "block")
	t.Setenv("XSKY_KAFKA__BROKERS", "k1:9092,k2:9092")

	data := []byte(`{
		"service": "checkout",
		"collector": {"kind": "kafka"},
		"reporter": {"queue_size": 16, "retry_attempts": 3, "breaker": true, "send_timeout": "2s"}
	}`)
	cfg, err := xagent.ParseConfig(data, xconf.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, xagent.CollectorKafka, cfg.Collector.Kind)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 16, cfg.Reporter.QueueSize)
	assert.Equal(t, "block", cfg.Reporter.Overflow)
	assert.Equal(t, 3, cfg.Reporter.RetryAttempts)
	assert.True(t, cfg.Reporter.Breaker)
	assert.Equal(t, 2*time.Second, cfg.Reporter.SendTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: checkout\ninstance: c-1\n"), 0o600))

	cfg, src, err := xagent.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "c-1", cfg.Instance)
	assert.Equal(t, path, src.Path())

	_, _, err = xagent.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, xconf.ErrLoadFailed)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *xagent.Config)
		want   error
	}{
		{"合法", func(*xagent.Config) {}, nil},
		{"缺少服务名", func(c *xagent.Config) { c.Service = "" }, xagent.ErrEmptyService},
		{"未知 collector", func(c *xagent.Config) { c.Collector.Kind = "zipkin" }, xagent.ErrUnknownCollector},
		{"gRPC 缺地址", func(c *xagent.Config) { c.Collector = xagent.CollectorConfig{Kind: xagent.CollectorGRPC} }, xagent.ErrEmptyAddress},
		{"Kafka 缺 broker", func(c *xagent.Config) { c.Collector.Kind = xagent.CollectorKafka }, xagent.ErrNoBrokers},
		{"未知溢出策略", func(c *xagent.Config) { c.Reporter.Overflow = "spill" }, xagent.ErrUnknownOverflow},
		{"未知 ID 生成器", func(c *xagent.Config) { c.IDs = "snowflake" }, xagent.ErrUnknownIDKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Service = ""
	_, err := xagent.New(cfg)
	assert.ErrorIs(t, err, xagent.ErrEmptyService)

	cfg = testConfig()
	cfg.Log.Format = "xml"
	_, err = xagent.New(cfg)
	assert.Error(t, err)
}

func TestNew_DefaultInstance(t *testing.T) {
	cfg := testConfig()
	cfg.Instance = ""
	cfg.Log.Level = "error"
	a, err := xagent.New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close()) }()

	assert.Contains(t, a.Instance(), "@")
	assert.Equal(t, "checkout", a.Service())
}

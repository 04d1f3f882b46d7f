package xconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Service  string `koanf:"service"`
	Reporter struct {
		QueueSize int    `koanf:"queue_size"`
		Overflow  string `koanf:"overflow"`
	} `koanf:"reporter"`
	Kafka struct {
		Brokers []string `koanf:"brokers"`
	} `koanf:"kafka"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"YAML", "agent.yaml", "service: checkout\nreporter:\n  queue_size: 64\n"},
		{"YML", "agent.yml", "service: checkout\nreporter:\n  queue_size: 64\n"},
		{"JSON", "agent.json", `{"service":"checkout","reporter":{"queue_size":64}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			var c testConfig
			require.NoError(t, cfg.Unmarshal("", &c))
			assert.Equal(t, "checkout", c.Service)
			assert.Equal(t, 64, c.Reporter.QueueSize)
			assert.Equal(t, "checkout", cfg.Koanf().String("service"))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = Load("agent.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = Load(writeFile(t, "bad.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = LoadBytes(nil, Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLayering(t *testing.T) {
	t.Setenv("XSKYTEST_REPORTER__OVERFLOW", "block")
	t.Setenv("XSKYTEST_KAFKA__BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadBytes([]byte("reporter:\n  queue_size: 64\n  overflow: drop\n"), FormatYAML,
		WithEnvPrefix("XSKYTEST_"),
		WithDefaults(map[string]any{
			"service":             "default-svc",
			"reporter.queue_size": 1024,
		}),
	)
	require.NoError(t, err)

	var c testConfig
	require.NoError(t, cfg.Unmarshal("", &c))
	assert.Equal(t, "default-svc", c.Service, "默认值")
	assert.Equal(t, 64, c.Reporter.QueueSize, "文件覆盖默认值")
	assert.Equal(t, "block", c.Reporter.Overflow, "环境变量覆盖文件")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestLoadBytes_Empty(t *testing.T) {
	cfg, err := LoadBytes(nil, FormatJSON)
	require.NoError(t, err)

	var c testConfig
	require.NoError(t, cfg.Unmarshal("", &c))
	assert.Zero(t, c)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, FormatJSON, cfg.Format())
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)
}

func TestReload(t *testing.T) {
	path := writeFile(t, "agent.yaml", "service: a\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	old := cfg.Koanf()

	require.NoError(t, os.WriteFile(path, []byte("service: b\n"), 0o600))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "b", cfg.Koanf().String("service"))
	assert.Equal(t, "a", old.String("service"), "旧快照不变")

	require.NoError(t, os.WriteFile(path, []byte("service: [unterminated"), 0o600))
	require.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "b", cfg.Koanf().String("service"), "失败保留旧配置")
}

func TestUnmarshal_TypeMismatch(t *testing.T) {
	cfg, err := LoadBytes([]byte(`{"reporter":{"queue_size":"lots"}}`), FormatJSON)
	require.NoError(t, err)

	var c testConfig
	assert.ErrorIs(t, cfg.Unmarshal("", &c), ErrUnmarshalFailed)
}

func TestOptions(t *testing.T) {
	o := defaultOptions([]Option{WithDelim(""), WithTag("")})
	assert.Equal(t, ".", o.delim)
	assert.Equal(t, "koanf", o.tag)

	cfg, err := LoadBytes([]byte(`{"a":{"b":1}}`), FormatJSON, WithDelim("/"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Koanf().Int("a/b"))
}

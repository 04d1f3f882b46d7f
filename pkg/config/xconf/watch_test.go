package xconf

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_Reload(t *testing.T) {
	path := writeFile(t, "agent.yaml", "service: a\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	reloaded := make(chan error, 8)
	w, err := Watch(cfg, func(_ *Config, err error) { reloaded <- err }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { assert.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(path, []byte("service: b\n"), 0o600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reload not observed")
	}
	assert.Equal(t, "b", cfg.Koanf().String("service"))
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	path := writeFile(t, "agent.yaml", "service: a\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	called := make(chan struct{}, 1)
	w, err := Watch(cfg, func(*Config, error) { called <- struct{}{} }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path+".bak", []byte("x"), 0o600))
	select {
	case <-called:
		t.Fatal("unexpected reload")
	case <-time.After(200 * time.Millisecond):
	}
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "重复 Stop")
}

func TestWatch_Errors(t *testing.T) {
	_, err := Watch(nil, nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	cfg, err := LoadBytes(nil, FormatYAML)
	require.NoError(t, err)
	_, err = Watch(cfg, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)
}
